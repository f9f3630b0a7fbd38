package imaging

import (
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// CappedSize returns the dimensions of a width x height image after limiting
// its width to maxWidth with the aspect ratio preserved. ok is false when no
// resize is needed.
func CappedSize(width, height, maxWidth int) (w, h int, ok bool) {
	if maxWidth <= 0 || width <= maxWidth {
		return width, height, false
	}
	scale := float64(maxWidth) / float64(width)
	h = int(math.Round(float64(height) * scale))
	if h < 1 {
		h = 1
	}
	return maxWidth, h, true
}

// CapWidth downscales src so that its width does not exceed maxWidth, using
// an area-averaging (box) filter. When src is already narrow enough it is
// returned unchanged and resized is false.
func CapWidth(src *raster.Buffer, maxWidth int) (out *raster.Buffer, resized bool, err error) {
	if err := src.Validate(); err != nil {
		return nil, false, err
	}
	w, h, ok := CappedSize(src.Width, src.Height, maxWidth)
	if !ok {
		return src, false, nil
	}

	scaled := imaging.Resize(src.ToNRGBA(), w, h, imaging.Box)
	full := raster.FromNRGBA(scaled)
	if src.Channels == 4 {
		return full, true, nil
	}
	return narrow(full, src.Channels), true, nil
}

// narrow drops channels from a 4-channel buffer.
func narrow(full *raster.Buffer, channels int) *raster.Buffer {
	n := full.Width * full.Height
	out := &raster.Buffer{Width: full.Width, Height: full.Height, Channels: channels, Samples: make([]byte, n*channels)}
	for i := 0; i < n; i++ {
		copy(out.Samples[i*channels:(i+1)*channels], full.Samples[i*4:i*4+channels])
	}
	return out
}
