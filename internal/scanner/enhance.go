package scanner

import (
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// enhance produces the final scan from the deskewed image behind in:
//
//  1. 3x3 Gaussian denoise
//  2. grayscale and global histogram equalization
//  3. back to opaque RGBA
//  4. sharpen
//  5. blend the sharpened image with the deskewed colour image
//  6. cap the width, keeping the aspect ratio
//
// The result is always a new buffer.
func (p *Pipeline) enhance(a *raster.Arena, in raster.Handle, report *Report) (raster.Result, error) {
	src := a.Get(in)
	w, h := src.Width, src.Height

	denoised, err := imaging.GaussianBlur(src, 3)
	if err != nil {
		return raster.Result{}, err
	}
	hDenoised, err := a.Adopt(denoised)
	if err != nil {
		return raster.Result{}, err
	}

	hGray, gray, err := a.Alloc(w, h, 1)
	if err != nil {
		return raster.Result{}, err
	}
	if err := imaging.GrayscaleInto(gray, denoised); err != nil {
		return raster.Result{}, err
	}
	if err := a.Release(hDenoised); err != nil {
		return raster.Result{}, err
	}

	hEq, eq, err := a.Alloc(w, h, 1)
	if err != nil {
		return raster.Result{}, err
	}
	if err := imaging.EqualizeInto(eq, gray); err != nil {
		return raster.Result{}, err
	}
	if err := a.Release(hGray); err != nil {
		return raster.Result{}, err
	}

	hEqColor, eqColor, err := a.Alloc(w, h, 4)
	if err != nil {
		return raster.Result{}, err
	}
	if err := imaging.GrayToRGBAInto(eqColor, eq); err != nil {
		return raster.Result{}, err
	}
	if err := a.Release(hEq); err != nil {
		return raster.Result{}, err
	}

	sharp, err := imaging.Sharpen(eqColor)
	if err != nil {
		return raster.Result{}, err
	}
	hSharp, err := a.Adopt(sharp)
	if err != nil {
		return raster.Result{}, err
	}
	if err := a.Release(hEqColor); err != nil {
		return raster.Result{}, err
	}

	hBlend, blended, err := a.Alloc(w, h, 4)
	if err != nil {
		return raster.Result{}, err
	}
	if err := imaging.AddWeightedInto(blended, sharp, p.opts.SharpenWeight, src.ToChannels4(), p.opts.OriginalWeight, 0); err != nil {
		return raster.Result{}, err
	}
	if err := a.Release(hSharp); err != nil {
		return raster.Result{}, err
	}

	capped, resized, err := imaging.CapWidth(blended, p.opts.MaxWidth)
	if err != nil {
		return raster.Result{}, err
	}
	report.OutputWidth, report.OutputHeight = capped.Width, capped.Height
	if !resized {
		return raster.Owned(hBlend), nil
	}

	report.Downscaled = true
	hCapped, err := a.Adopt(capped)
	if err != nil {
		return raster.Result{}, err
	}
	if err := a.Release(hBlend); err != nil {
		return raster.Result{}, err
	}
	return raster.Owned(hCapped), nil
}
