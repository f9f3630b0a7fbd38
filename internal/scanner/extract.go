package scanner

import (
	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// extract traces every edge border of the image behind in. All
// intermediate buffers are released before it returns; in is left alone.
func (p *Pipeline) extract(a *raster.Arena, in raster.Handle) ([]detection.Contour, error) {
	src := a.Get(in)

	hGray, gray, err := a.Alloc(src.Width, src.Height, 1)
	if err != nil {
		return nil, err
	}
	if err := imaging.GrayscaleInto(gray, src); err != nil {
		return nil, err
	}

	blurred, err := imaging.GaussianBlur(gray, 5)
	if err != nil {
		return nil, err
	}
	hBlur, err := a.Adopt(blurred)
	if err != nil {
		return nil, err
	}
	if err := a.Release(hGray); err != nil {
		return nil, err
	}

	hEdges, edges, err := a.Alloc(src.Width, src.Height, 1)
	if err != nil {
		return nil, err
	}
	if err := imaging.CannyInto(edges, blurred, p.opts.CannyLow, p.opts.CannyHigh); err != nil {
		return nil, err
	}
	if err := a.Release(hBlur); err != nil {
		return nil, err
	}

	contours, err := detection.FindContours(edges, detection.ListAll)
	if err != nil {
		return nil, err
	}
	if err := a.Release(hEdges); err != nil {
		return nil, err
	}
	return contours, nil
}
