package scanner

import (
	"fmt"
	"image/color"
	"time"
)

// Options tunes a Pipeline and its Controller. The zero value is not
// usable; start from DefaultOptions.
type Options struct {
	// CannyLow and CannyHigh are the hysteresis thresholds of the edge
	// detector on a 0..255 gradient scale.
	CannyLow  float64
	CannyHigh float64

	// ApproxEpsilon is the Douglas-Peucker tolerance as a fraction of each
	// contour's perimeter.
	ApproxEpsilon float64

	// MaxWidth caps the output width. Zero disables the cap.
	MaxWidth int

	// SharpenWeight and OriginalWeight blend the sharpened equalized image
	// with the deskewed colour image.
	SharpenWeight  float64
	OriginalWeight float64

	// Border fills samples the warps take from outside their source.
	Border color.NRGBA

	// Ordering assigns corner roles before rectification.
	Ordering CornerOrdering

	// YieldDelay is how long Invoke waits between announcing Processing and
	// starting the run.
	YieldDelay time.Duration
}

// DefaultOptions returns the stock tuning: Canny 50/150, 2% approximation,
// 1024 px width cap, 0.9/0.1 blend, transparent black border, x-based corner
// ordering and a 50 ms yield.
func DefaultOptions() Options {
	return Options{
		CannyLow:       50,
		CannyHigh:      150,
		ApproxEpsilon:  0.02,
		MaxWidth:       1024,
		SharpenWeight:  0.9,
		OriginalWeight: 0.1,
		Border:         color.NRGBA{},
		Ordering:       OrderCornersByX,
		YieldDelay:     50 * time.Millisecond,
	}
}

// Validate checks that the options describe a runnable pipeline.
func (o Options) Validate() error {
	if o.CannyLow < 0 || o.CannyHigh < 0 {
		return fmt.Errorf("canny thresholds must not be negative (got %v/%v)", o.CannyLow, o.CannyHigh)
	}
	if o.CannyLow > o.CannyHigh {
		return fmt.Errorf("canny low threshold %v exceeds high threshold %v", o.CannyLow, o.CannyHigh)
	}
	if o.ApproxEpsilon <= 0 || o.ApproxEpsilon >= 1 {
		return fmt.Errorf("approx epsilon must be in (0, 1), got %v", o.ApproxEpsilon)
	}
	if o.MaxWidth < 0 {
		return fmt.Errorf("max width must not be negative, got %d", o.MaxWidth)
	}
	if o.SharpenWeight < 0 || o.OriginalWeight < 0 {
		return fmt.Errorf("blend weights must not be negative (got %v/%v)", o.SharpenWeight, o.OriginalWeight)
	}
	if o.Ordering == nil {
		return fmt.Errorf("corner ordering is required")
	}
	if o.YieldDelay < 0 {
		return fmt.Errorf("yield delay must not be negative, got %s", o.YieldDelay)
	}
	return nil
}
