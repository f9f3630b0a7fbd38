package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/convolution"

	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// binomial rows for the smoothing kernels. Their outer products are the
// separable Gaussian kernels OpenCV uses for small apertures (sigma derived
// from the size), so weights are exact dyadic fractions.
var binomial = map[int][]float64{
	3: {1, 2, 1},
	5: {1, 4, 6, 4, 1},
}

// SharpenKernel is the 3x3 high-pass kernel used by the enhancer.
var SharpenKernel = [3][3]float64{
	{0, -1, 0},
	{-1, 5, -1},
	{0, -1, 0},
}

// GaussianKernel returns the normalised ksize x ksize Gaussian kernel.
// Only sizes 3 and 5 are supported.
func GaussianKernel(ksize int) (*convolution.Kernel, error) {
	row, ok := binomial[ksize]
	if !ok {
		return nil, fmt.Errorf("unsupported Gaussian kernel size %d", ksize)
	}
	var sum float64
	for _, v := range row {
		sum += v
	}
	k := convolution.NewKernel(ksize, ksize)
	for y := 0; y < ksize; y++ {
		for x := 0; x < ksize; x++ {
			k.Matrix[y*ksize+x] = row[y] * row[x] / (sum * sum)
		}
	}
	return k, nil
}

// GaussianBlur smooths every channel of src with a ksize x ksize Gaussian.
// Borders replicate the edge pixels.
func GaussianBlur(src *raster.Buffer, ksize int) (*raster.Buffer, error) {
	k, err := GaussianKernel(ksize)
	if err != nil {
		return nil, err
	}
	return Convolve(src, k)
}

// Sharpen applies SharpenKernel to every channel of src, clamping results to
// the valid sample range.
func Sharpen(src *raster.Buffer) (*raster.Buffer, error) {
	k := convolution.NewKernel(3, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			k.Matrix[y*3+x] = SharpenKernel[y][x]
		}
	}
	return Convolve(src, k)
}

// Convolve runs a bild convolution over src and returns a buffer with the
// same shape. Alpha is convolved like any other channel.
func Convolve(src *raster.Buffer, k convolution.Matrix) (*raster.Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	out := convolution.Convolve(src.ToRGBA(), k, &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: false})
	return fromConvolved(out, src.Channels), nil
}

func fromConvolved(img *image.RGBA, channels int) *raster.Buffer {
	full := raster.FromRGBA(img)
	if channels == 4 {
		return full
	}
	n := full.Width * full.Height
	out := &raster.Buffer{Width: full.Width, Height: full.Height, Channels: channels, Samples: make([]byte, n*channels)}
	for i := 0; i < n; i++ {
		copy(out.Samples[i*channels:(i+1)*channels], full.Samples[i*4:i*4+channels])
	}
	return out
}
