package imaging

import (
	"fmt"
	"math"

	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// BT.601 weights scaled by 2^14.
const (
	lumR     = 4899
	lumG     = 9617
	lumB     = 1868
	lumShift = 14
	lumHalf  = 1 << (lumShift - 1)
)

// Luminance returns the rounded BT.601 luminance of an RGB triple.
func Luminance(r, g, b uint8) uint8 {
	return uint8((int(r)*lumR + int(g)*lumG + int(b)*lumB + lumHalf) >> lumShift)
}

// Grayscale converts src to a new single-channel buffer.
func Grayscale(src *raster.Buffer) (*raster.Buffer, error) {
	dst, err := raster.New(src.Width, src.Height, 1)
	if err != nil {
		return nil, err
	}
	if err := GrayscaleInto(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// GrayscaleInto writes the luminance of src into the single-channel dst.
// A single-channel src is copied unchanged.
func GrayscaleInto(dst, src *raster.Buffer) error {
	if err := src.Validate(); err != nil {
		return err
	}
	if dst.Width != src.Width || dst.Height != src.Height || dst.Channels != 1 {
		return fmt.Errorf("%w: grayscale destination %dx%dx%d for %dx%d source",
			raster.ErrInvalidBuffer, dst.Width, dst.Height, dst.Channels, src.Width, src.Height)
	}

	if src.Channels == 1 {
		copy(dst.Samples, src.Samples)
		return nil
	}

	n := src.Width * src.Height
	ch := src.Channels
	for i := 0; i < n; i++ {
		p := src.Samples[i*ch : i*ch+3]
		dst.Samples[i] = Luminance(p[0], p[1], p[2])
	}
	return nil
}

// GrayToRGBA replicates a single-channel buffer into a new opaque RGBA buffer.
func GrayToRGBA(src *raster.Buffer) (*raster.Buffer, error) {
	dst, err := raster.New(src.Width, src.Height, 4)
	if err != nil {
		return nil, err
	}
	if err := GrayToRGBAInto(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// GrayToRGBAInto writes src's luminance into R, G and B of dst with alpha 255.
func GrayToRGBAInto(dst, src *raster.Buffer) error {
	if err := src.Validate(); err != nil {
		return err
	}
	if src.Channels != 1 {
		return fmt.Errorf("%w: expected 1 channel, got %d", raster.ErrInvalidBuffer, src.Channels)
	}
	if dst.Width != src.Width || dst.Height != src.Height || dst.Channels != 4 {
		return fmt.Errorf("%w: RGBA destination %dx%dx%d for %dx%d source",
			raster.ErrInvalidBuffer, dst.Width, dst.Height, dst.Channels, src.Width, src.Height)
	}

	for i, v := range src.Samples {
		o := i * 4
		dst.Samples[o] = v
		dst.Samples[o+1] = v
		dst.Samples[o+2] = v
		dst.Samples[o+3] = 255
	}
	return nil
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// saturate rounds v half-to-even and clamps it to a byte.
func saturate(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.RoundToEven(v))
}
