package scanner

import (
	"errors"
	"fmt"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// deskew rotates the image behind in so that the minimum-area rectangle
// around its largest foreground blob is axis-aligned. The blob comes from an
// Otsu threshold of the grayscale image. Without any foreground the input is
// passed through as an alias.
func (p *Pipeline) deskew(a *raster.Arena, in raster.Handle, report *Report) (raster.Result, error) {
	src := a.Get(in)

	hGray, gray, err := a.Alloc(src.Width, src.Height, 1)
	if err != nil {
		return raster.Result{}, err
	}
	if err := imaging.GrayscaleInto(gray, src); err != nil {
		return raster.Result{}, err
	}
	hBin, binary, err := a.Alloc(src.Width, src.Height, 1)
	if err != nil {
		return raster.Result{}, err
	}
	level, err := imaging.OtsuBinarizeInto(binary, gray)
	if err != nil {
		return raster.Result{}, err
	}
	report.OtsuThreshold = level
	if err := a.Release(hGray); err != nil {
		return raster.Result{}, err
	}

	contours, err := detection.FindContours(binary, detection.External)
	if err != nil {
		return raster.Result{}, err
	}
	if err := a.Release(hBin); err != nil {
		return raster.Result{}, err
	}

	largest := LargestContour(contours)
	if largest < 0 {
		report.DeskewAliased = true
		return raster.Alias(in), nil
	}

	rect := detection.MinAreaRect(contours[largest].Points).Normalized()
	m := geometry.RotationMatrix2D(rect.Center, rect.Angle, 1)

	hOut, out, err := a.Alloc(src.Width, src.Height, src.Channels)
	if err != nil {
		return raster.Result{}, err
	}
	err = imaging.WarpAffineInto(out, src, m, raster.Pixel(p.opts.Border, src.Channels))
	if errors.Is(err, geometry.ErrSingular) {
		if err := a.Release(hOut); err != nil {
			return raster.Result{}, err
		}
		report.DeskewAliased = true
		report.Degenerate = fmt.Sprintf("%v: %v", ErrGeometryDegenerate, err)
		return raster.Alias(in), nil
	}
	if err != nil {
		return raster.Result{}, err
	}

	report.SkewAngle = rect.Angle
	return raster.Owned(hOut), nil
}

// LargestContour returns the index of the contour with the largest area, or
// -1 when none encloses any area. The first of equal areas wins.
func LargestContour(contours []detection.Contour) int {
	largest, maxArea := -1, 0.0
	for i, c := range contours {
		if area := detection.ContourArea(c.Points); area > maxArea {
			largest, maxArea = i, area
		}
	}
	return largest
}

// SkewAngle measures the tilt of the largest foreground blob of img the way
// the deskew stage does, in degrees within (-45, 45]. ok is false when the
// image has no foreground with area.
func SkewAngle(img *raster.Buffer) (angle float64, ok bool, err error) {
	gray, err := imaging.Grayscale(img)
	if err != nil {
		return 0, false, err
	}
	binary, err := raster.New(img.Width, img.Height, 1)
	if err != nil {
		return 0, false, err
	}
	if _, err := imaging.OtsuBinarizeInto(binary, gray); err != nil {
		return 0, false, err
	}
	contours, err := detection.FindContours(binary, detection.External)
	if err != nil {
		return 0, false, err
	}
	largest := LargestContour(contours)
	if largest < 0 {
		return 0, false, nil
	}
	return detection.MinAreaRect(contours[largest].Points).Normalized().Angle, true, nil
}
