package imaging

import (
	"fmt"
	"math"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// inverseMap maps a destination pixel centre back into source coordinates.
// ok is false when the point has no finite source.
type inverseMap func(x, y float64) (sx, sy float64, ok bool)

// WarpPerspectiveInto resamples src through the homography m (source to
// destination) into dst. Each destination pixel is mapped back through the
// inverse of m and sampled bilinearly; neighbours outside src take the
// border sample.
func WarpPerspectiveInto(dst, src *raster.Buffer, m geometry.Perspective, border []byte) error {
	inv, err := m.Invert()
	if err != nil {
		return err
	}
	return warp(dst, src, border, func(x, y float64) (float64, float64, bool) {
		p, ok := inv.Apply(geometry.Pt(x, y))
		return p.X, p.Y, ok
	})
}

// WarpAffineInto resamples src through the affine transform m (source to
// destination) into dst, with the same sampling rules as WarpPerspectiveInto.
func WarpAffineInto(dst, src *raster.Buffer, m geometry.Affine, border []byte) error {
	inv, err := m.Invert()
	if err != nil {
		return err
	}
	return warp(dst, src, border, func(x, y float64) (float64, float64, bool) {
		p := inv.Apply(geometry.Pt(x, y))
		return p.X, p.Y, true
	})
}

func warp(dst, src *raster.Buffer, border []byte, inverse inverseMap) error {
	if err := src.Validate(); err != nil {
		return err
	}
	if err := dst.Validate(); err != nil {
		return err
	}
	ch := src.Channels
	if dst.Channels != ch {
		return fmt.Errorf("%w: warp from %d to %d channels", raster.ErrInvalidBuffer, ch, dst.Channels)
	}
	if len(border) != ch {
		return fmt.Errorf("%w: border has %d samples for %d channels", raster.ErrInvalidBuffer, len(border), ch)
	}

	w, h := src.Width, src.Height
	sample := func(x, y, c int) float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return float64(border[c])
		}
		return float64(src.Samples[(y*w+x)*ch+c])
	}

	for dy := 0; dy < dst.Height; dy++ {
		for dx := 0; dx < dst.Width; dx++ {
			o := (dy*dst.Width + dx) * ch
			sx, sy, ok := inverse(float64(dx), float64(dy))
			if !ok || math.IsNaN(sx) || math.IsNaN(sy) || sx <= -1 || sy <= -1 || sx >= float64(w) || sy >= float64(h) {
				copy(dst.Samples[o:o+ch], border)
				continue
			}

			x0 := int(math.Floor(sx))
			y0 := int(math.Floor(sy))
			fx := sx - float64(x0)
			fy := sy - float64(y0)
			for c := 0; c < ch; c++ {
				top := sample(x0, y0, c)*(1-fx) + sample(x0+1, y0, c)*fx
				bottom := sample(x0, y0+1, c)*(1-fx) + sample(x0+1, y0+1, c)*fx
				dst.Samples[o+c] = saturate(top*(1-fy) + bottom*fy)
			}
		}
	}
	return nil
}
