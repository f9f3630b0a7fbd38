package imaging

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ParseBorder turns a "#RRGGBB" (or "#RGB") hex string and an alpha value
// into the constant colour written where a warp samples outside its source.
// An empty string means black.
func ParseBorder(hex string, alpha uint8) (color.NRGBA, error) {
	if hex == "" {
		return color.NRGBA{A: alpha}, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid border color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}
