package imaging

import (
	"fmt"

	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// AddWeightedInto computes dst = alpha*a + beta*b + gamma per sample,
// rounded and clamped to 0..255. All three buffers must share a shape.
func AddWeightedInto(dst, a *raster.Buffer, alpha float64, b *raster.Buffer, beta, gamma float64) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if !a.SameShape(b) || !dst.SameShape(a) {
		return fmt.Errorf("%w: blend of %dx%dx%d and %dx%dx%d into %dx%dx%d",
			raster.ErrInvalidBuffer,
			a.Width, a.Height, a.Channels,
			b.Width, b.Height, b.Channels,
			dst.Width, dst.Height, dst.Channels)
	}

	for i := range dst.Samples {
		dst.Samples[i] = saturate(alpha*float64(a.Samples[i]) + beta*float64(b.Samples[i]) + gamma)
	}
	return nil
}

// AddWeighted is AddWeightedInto with a freshly allocated destination.
func AddWeighted(a *raster.Buffer, alpha float64, b *raster.Buffer, beta, gamma float64) (*raster.Buffer, error) {
	dst, err := raster.New(a.Width, a.Height, a.Channels)
	if err != nil {
		return nil, err
	}
	if err := AddWeightedInto(dst, a, alpha, b, beta, gamma); err != nil {
		return nil, err
	}
	return dst, nil
}
