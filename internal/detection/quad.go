package detection

import (
	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// Quad is a four-point polygon. Its corner order is whatever produced it;
// callers that need roles must order it themselves.
type Quad [4]geometry.Point

// Area returns the absolute area of the quad.
func (q Quad) Area() float64 {
	return ContourArea(q[:])
}

// QuadSource tells where a detected quad came from.
type QuadSource string

const (
	// QuadNone means no quad was found and rectification is skipped.
	QuadNone QuadSource = "none"
	// QuadApprox means a contour simplified to exactly four vertices.
	QuadApprox QuadSource = "approx"
	// QuadBoundingRect means no contour simplified to four vertices and the
	// bounding box of the largest contour stands in for the document.
	QuadBoundingRect QuadSource = "bounding_rect"
)

// QuadResult is the outcome of DetectQuad.
type QuadResult struct {
	Quad   Quad       `json:"quad"`
	Source QuadSource `json:"source"`
	// Contour is the index of the contour the quad was taken from, -1 for
	// QuadNone.
	Contour int     `json:"contour"`
	Area    float64 `json:"area"`
}

// Found reports whether a quad was produced.
func (r QuadResult) Found() bool {
	return r.Source != QuadNone
}

// DetectQuad picks the document outline from a contour set.
//
// Parameters:
//   - contours: Traced borders, typically from FindContours in ListAll mode.
//   - epsilonFraction: Douglas-Peucker tolerance as a fraction of each
//     contour's closed perimeter. Typical: 0.02.
//
// # Selection
//
//  1. Every contour is simplified; those with exactly four vertices compete
//     on enclosed area. Only a strictly greater area replaces the current
//     best, starting from zero, so the first of equal candidates wins and a
//     zero-area quad never qualifies.
//  2. Without such a candidate, the contour with the largest raw area
//     (strictly above zero) is chosen and its inclusive bounding box corners
//     are returned in top-left, top-right, bottom-right, bottom-left order.
//  3. If every contour encloses nothing, the result is QuadNone.
func DetectQuad(contours []Contour, epsilonFraction float64) QuadResult {
	best := QuadResult{Source: QuadNone, Contour: -1}

	for i, c := range contours {
		perimeter := ArcLength(c.Points, true)
		approx := ApproxPolyDP(c.Points, epsilonFraction*perimeter, true)
		if len(approx) != 4 {
			continue
		}
		area := ContourArea(approx)
		if area > best.Area {
			best = QuadResult{
				Quad:    Quad{approx[0], approx[1], approx[2], approx[3]},
				Source:  QuadApprox,
				Contour: i,
				Area:    area,
			}
		}
	}
	if best.Found() {
		return best
	}

	largest, maxArea := -1, 0.0
	for i, c := range contours {
		if area := ContourArea(c.Points); area > maxArea {
			largest, maxArea = i, area
		}
	}
	if largest < 0 {
		return best
	}

	box := BoundingRect(contours[largest].Points)
	return QuadResult{
		Quad:    box.Corners(),
		Source:  QuadBoundingRect,
		Contour: largest,
		Area:    float64(box.Area()),
	}
}
