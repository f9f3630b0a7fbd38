package imaging

import (
	"fmt"
	"math"

	"github.com/anthonynsimon/bild/histogram"

	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// Histogram returns the 256-bin grey-level histogram of a single-channel
// buffer.
func Histogram(gray *raster.Buffer) ([256]int, error) {
	var bins [256]int
	if err := gray.Validate(); err != nil {
		return bins, err
	}
	if gray.Channels != 1 {
		return bins, fmt.Errorf("%w: histogram expects 1 channel, got %d", raster.ErrInvalidBuffer, gray.Channels)
	}
	h := histogram.NewRGBAHistogram(gray.ToGray())
	copy(bins[:], h.R.Bins)
	return bins, nil
}

// OtsuThreshold picks the grey level that maximises the between-class
// variance of hist. The first maximum wins; a histogram with a single
// populated level yields 0.
func OtsuThreshold(hist [256]int) int {
	total := 0
	mu := 0.0
	for i, c := range hist {
		total += c
		mu += float64(i * c)
	}
	if total == 0 {
		return 0
	}
	scale := 1.0 / float64(total)
	mu *= scale

	const eps = 1.1920929e-07 // float32 epsilon
	var q1, mu1, maxSigma float64
	maxVal := 0
	for i := 0; i < 256; i++ {
		p := float64(hist[i]) * scale
		mu1 *= q1
		q1 += p
		q2 := 1 - q1

		if math.Min(q1, q2) < eps || math.Max(q1, q2) > 1-eps {
			continue
		}

		mu1 = (mu1 + float64(i)*p) / q1
		mu2 := (mu - q1*mu1) / q2
		sigma := q1 * q2 * (mu1 - mu2) * (mu1 - mu2)
		if sigma > maxSigma {
			maxSigma = sigma
			maxVal = i
		}
	}
	return maxVal
}

// ThresholdInto writes 255 where src > level and 0 elsewhere.
func ThresholdInto(dst, src *raster.Buffer, level int) error {
	if err := src.Validate(); err != nil {
		return err
	}
	if src.Channels != 1 || !dst.SameShape(src) {
		return fmt.Errorf("%w: threshold expects matching single-channel buffers", raster.ErrInvalidBuffer)
	}
	for i, v := range src.Samples {
		if int(v) > level {
			dst.Samples[i] = 255
		} else {
			dst.Samples[i] = 0
		}
	}
	return nil
}

// OtsuBinarizeInto thresholds src at its Otsu level into dst and returns the
// level used.
func OtsuBinarizeInto(dst, src *raster.Buffer) (int, error) {
	hist, err := Histogram(src)
	if err != nil {
		return 0, err
	}
	level := OtsuThreshold(hist)
	return level, ThresholdInto(dst, src, level)
}

// EqualizeLUT builds the histogram-equalization lookup table.
//
// The darkest populated level maps to 0 and the cumulative distribution of
// the remaining levels is stretched over 0..255. A histogram with a single
// populated level maps everything to that level.
func EqualizeLUT(hist [256]int) [256]uint8 {
	var lut [256]uint8
	total := 0
	for _, c := range hist {
		total += c
	}

	first := 0
	for first < 256 && hist[first] == 0 {
		first++
	}
	if first == 256 {
		return lut
	}
	if hist[first] == total {
		for i := range lut {
			lut[i] = uint8(first)
		}
		return lut
	}

	scale := 255.0 / float64(total-hist[first])
	sum := 0
	for i := first + 1; i < 256; i++ {
		sum += hist[i]
		lut[i] = saturate(float64(sum) * scale)
	}
	return lut
}

// EqualizeInto applies global histogram equalization from src into dst.
func EqualizeInto(dst, src *raster.Buffer) error {
	hist, err := Histogram(src)
	if err != nil {
		return err
	}
	if !dst.SameShape(src) {
		return fmt.Errorf("%w: equalize destination shape mismatch", raster.ErrInvalidBuffer)
	}
	lut := EqualizeLUT(hist)
	for i, v := range src.Samples {
		dst.Samples[i] = lut[v]
	}
	return nil
}

// Equalize returns a histogram-equalized copy of a single-channel buffer.
func Equalize(src *raster.Buffer) (*raster.Buffer, error) {
	dst, err := raster.New(src.Width, src.Height, 1)
	if err != nil {
		return nil, err
	}
	if err := EqualizeInto(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}
