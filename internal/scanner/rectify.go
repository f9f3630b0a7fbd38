package scanner

import (
	"errors"
	"fmt"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// rectify warps the detected quad of the image behind in onto an upright
// rectangle. Without a quad, or when the quad is degenerate, the input is
// passed through as an alias.
func (p *Pipeline) rectify(a *raster.Arena, in raster.Handle, quad detection.QuadResult, report *Report) (raster.Result, error) {
	if !quad.Found() {
		report.RectifyAliased = true
		return raster.Alias(in), nil
	}
	src := a.Get(in)

	corners := p.opts.Ordering(quad.Quad)
	report.Corners = &corners

	width, height := DestinationSize(corners)
	if width < 1 || height < 1 {
		report.RectifyAliased = true
		report.Degenerate = fmt.Sprintf("%v: destination %dx%d", ErrGeometryDegenerate, width, height)
		return raster.Alias(in), nil
	}

	w, h := float64(width-1), float64(height-1)
	target := [4]geometry.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
	m, err := geometry.PerspectiveTransform(corners.Array(), target)
	if errors.Is(err, geometry.ErrSingular) {
		report.RectifyAliased = true
		report.Degenerate = fmt.Sprintf("%v: %v", ErrGeometryDegenerate, err)
		return raster.Alias(in), nil
	}
	if err != nil {
		return raster.Result{}, err
	}

	hOut, out, err := a.Alloc(width, height, src.Channels)
	if err != nil {
		return raster.Result{}, err
	}
	err = imaging.WarpPerspectiveInto(out, src, m, raster.Pixel(p.opts.Border, src.Channels))
	if errors.Is(err, geometry.ErrSingular) {
		if err := a.Release(hOut); err != nil {
			return raster.Result{}, err
		}
		report.RectifyAliased = true
		report.Degenerate = fmt.Sprintf("%v: %v", ErrGeometryDegenerate, err)
		return raster.Alias(in), nil
	}
	if err != nil {
		return raster.Result{}, err
	}

	report.RectifiedWidth, report.RectifiedHeight = width, height
	return raster.Owned(hOut), nil
}
