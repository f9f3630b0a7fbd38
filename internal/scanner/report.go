package scanner

import (
	"time"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// Report describes one pipeline run.
type Report struct {
	SourceWidth  int `json:"source_width"`
	SourceHeight int `json:"source_height"`

	// Contours is the number of borders the extractor traced.
	Contours int `json:"contours"`

	// Quad is where the document outline came from.
	Quad        detection.QuadSource `json:"quad_source"`
	QuadContour int                  `json:"quad_contour"`
	QuadArea    float64              `json:"quad_area"`

	// Corners is set when a quad was found, the rectified size only when it
	// was warped.
	Corners         *Corners `json:"corners,omitempty"`
	RectifiedWidth  int      `json:"rectified_width"`
	RectifiedHeight int      `json:"rectified_height"`
	RectifyAliased  bool     `json:"rectify_aliased"`

	// Degenerate records a quad that could not be warped.
	Degenerate string `json:"degenerate,omitempty"`

	// SkewAngle is the rotation applied by the deskew stage in degrees.
	SkewAngle     float64 `json:"skew_angle"`
	OtsuThreshold int     `json:"otsu_threshold"`
	DeskewAliased bool    `json:"deskew_aliased"`

	OutputWidth  int  `json:"output_width"`
	OutputHeight int  `json:"output_height"`
	Downscaled   bool `json:"downscaled"`

	// Buffers is the arena accounting after cleanup. Reclaimed counts the
	// buffers freed by the final sweep instead of by their stage, which is
	// non-zero only when a run stopped early.
	Buffers   raster.Stats `json:"buffers"`
	Reclaimed int          `json:"reclaimed"`

	Duration time.Duration `json:"duration_ns"`
}
