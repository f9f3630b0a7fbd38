package imaging

import (
	"fmt"
	"math"

	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// Canny detects edges in a single-channel image and returns a binary map
// where 255 marks an edge pixel.
//
// Parameters:
//   - src: Smoothed grayscale image. Callers blur first; Canny does not.
//   - thresholdLow: Gradient magnitudes above this are weak edge candidates.
//   - thresholdHigh: Gradient magnitudes above this are strong edges.
//
// # Algorithm
//
//  1. Gradient computation: 3x3 Sobel operators for X and Y,
//     magnitude = sqrt(Gx² + Gy²), direction = atan2(Gy, Gx)
//
//  2. Non-maximum suppression: keep a pixel only if it is a local maximum
//     along its gradient direction (strict on one side so plateaus thin to
//     a single pixel)
//
//  3. Hysteresis: strong pixels seed a flood through 8-connected weak
//     pixels; isolated weak pixels are dropped
//
// The outermost rows and columns are never edges.
func Canny(src *raster.Buffer, thresholdLow, thresholdHigh float64) (*raster.Buffer, error) {
	dst, err := raster.New(src.Width, src.Height, 1)
	if err != nil {
		return nil, err
	}
	if err := CannyInto(dst, src, thresholdLow, thresholdHigh); err != nil {
		return nil, err
	}
	return dst, nil
}

// CannyInto is Canny writing into a caller-supplied single-channel buffer.
func CannyInto(dst, src *raster.Buffer, thresholdLow, thresholdHigh float64) error {
	if err := src.Validate(); err != nil {
		return err
	}
	if src.Channels != 1 {
		return fmt.Errorf("%w: Canny expects 1 channel, got %d", raster.ErrInvalidBuffer, src.Channels)
	}
	if !dst.SameShape(src) {
		return fmt.Errorf("%w: Canny destination shape mismatch", raster.ErrInvalidBuffer)
	}
	if thresholdLow > thresholdHigh {
		thresholdLow, thresholdHigh = thresholdHigh, thresholdLow
	}

	width, height := src.Width, src.Height
	clear(dst.Samples)

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					v := float64(src.Samples[py*width+px])
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y*width+x] = math.Sqrt(gx*gx + gy*gy)
			direction[y*width+x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression
	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			mag := magnitude[i]
			if mag <= thresholdLow {
				continue
			}

			angle := direction[i]
			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8):
				n1 = magnitude[i-1]
				n2 = magnitude[i+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1 = magnitude[i-width-1]
				n2 = magnitude[i+width+1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1 = magnitude[i-width]
				n2 = magnitude[i+width]
			default:
				n1 = magnitude[i-width+1]
				n2 = magnitude[i+width-1]
			}

			if mag > n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}

	// Hysteresis: flood from strong pixels through weak ones.
	stack := make([]int, 0, 256)
	for i, v := range suppressed {
		if v > thresholdHigh && dst.Samples[i] == 0 {
			dst.Samples[i] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%width, p/width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					n := ny*width + nx
					if dst.Samples[n] == 0 && suppressed[n] > thresholdLow {
						dst.Samples[n] = 255
						stack = append(stack, n)
					}
				}
			}
		}
	}
	return nil
}
