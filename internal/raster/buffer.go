package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ErrInvalidBuffer is returned when a buffer's shape does not match its samples.
var ErrInvalidBuffer = errors.New("invalid raster buffer")

// Buffer is a width x height grid of 8-bit samples with 1, 3 or 4 channels.
//
// Samples are row-major and interleaved: the sample for channel c of pixel
// (x, y) lives at (y*Width+x)*Channels + c. Four-channel buffers hold
// straight (non-premultiplied) RGBA.
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Samples  []byte
}

// New allocates a zeroed buffer.
func New(width, height, channels int) (*Buffer, error) {
	if err := checkShape(width, height, channels); err != nil {
		return nil, err
	}
	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: channels,
		Samples:  make([]byte, width*height*channels),
	}, nil
}

func checkShape(width, height, channels int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidBuffer, width, height)
	}
	switch channels {
	case 1, 3, 4:
	default:
		return fmt.Errorf("%w: %d channels", ErrInvalidBuffer, channels)
	}
	return nil
}

// Validate checks the buffer invariants.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidBuffer)
	}
	if err := checkShape(b.Width, b.Height, b.Channels); err != nil {
		return err
	}
	if want := b.Width * b.Height * b.Channels; len(b.Samples) != want {
		return fmt.Errorf("%w: %d samples, want %d", ErrInvalidBuffer, len(b.Samples), want)
	}
	return nil
}

// Offset returns the index of the first sample of pixel (x, y).
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * b.Channels
}

// At returns the sample of channel c at (x, y). No bounds checking is done.
func (b *Buffer) At(x, y, c int) byte {
	return b.Samples[b.Offset(x, y)+c]
}

// Set writes the sample of channel c at (x, y). No bounds checking is done.
func (b *Buffer) Set(x, y, c int, v byte) {
	b.Samples[b.Offset(x, y)+c] = v
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	s := make([]byte, len(b.Samples))
	copy(s, b.Samples)
	return &Buffer{Width: b.Width, Height: b.Height, Channels: b.Channels, Samples: s}
}

// SameShape reports whether both buffers have identical dimensions and channels.
func (b *Buffer) SameShape(o *Buffer) bool {
	return b.Width == o.Width && b.Height == o.Height && b.Channels == o.Channels
}

// Equal reports whether both buffers hold the same shape and samples.
func (b *Buffer) Equal(o *Buffer) bool {
	if !b.SameShape(o) || len(b.Samples) != len(o.Samples) {
		return false
	}
	for i := range b.Samples {
		if b.Samples[i] != o.Samples[i] {
			return false
		}
	}
	return true
}

// FromImage converts any image into a 4-channel buffer.
//
// The image is normalised through imaging.Clone, which yields straight RGBA
// with the origin moved to (0, 0).
func FromImage(img image.Image) (*Buffer, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidBuffer)
	}
	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	if err := checkShape(w, h, 4); err != nil {
		return nil, err
	}
	buf := &Buffer{Width: w, Height: h, Channels: 4, Samples: make([]byte, w*h*4)}
	for y := 0; y < h; y++ {
		copy(buf.Samples[y*w*4:(y+1)*w*4], nrgba.Pix[y*nrgba.Stride:y*nrgba.Stride+w*4])
	}
	return buf, nil
}

// FromRGBA adopts the bytes of an *image.RGBA as straight RGBA samples.
//
// No premultiplication is undone: the pixel filters in this module write
// straight values into image.RGBA containers.
func FromRGBA(img *image.RGBA) *Buffer {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	buf := &Buffer{Width: w, Height: h, Channels: 4, Samples: make([]byte, w*h*4)}
	for y := 0; y < h; y++ {
		row := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(buf.Samples[y*w*4:(y+1)*w*4], img.Pix[row:row+w*4])
	}
	return buf
}

// FromNRGBA copies an *image.NRGBA into a 4-channel buffer.
func FromNRGBA(img *image.NRGBA) *Buffer {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	buf := &Buffer{Width: w, Height: h, Channels: 4, Samples: make([]byte, w*h*4)}
	for y := 0; y < h; y++ {
		row := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(buf.Samples[y*w*4:(y+1)*w*4], img.Pix[row:row+w*4])
	}
	return buf
}

// ToRGBA exposes a 4-channel buffer as an *image.RGBA holding the same bytes.
//
// The returned image shares nothing with the buffer. Filters that treat
// image.RGBA as raw channel data (such as bild's convolution) can use it
// without alpha being applied.
func (b *Buffer) ToRGBA() *image.RGBA {
	rgba := b.toFour()
	img := image.NewRGBA(image.Rect(0, 0, rgba.Width, rgba.Height))
	copy(img.Pix, rgba.Samples)
	return img
}

// ToNRGBA converts the buffer to an *image.NRGBA copy.
func (b *Buffer) ToNRGBA() *image.NRGBA {
	rgba := b.toFour()
	img := image.NewNRGBA(image.Rect(0, 0, rgba.Width, rgba.Height))
	copy(img.Pix, rgba.Samples)
	return img
}

// ToGray converts a 1-channel buffer to an *image.Gray copy. Multi-channel
// buffers use their first channel.
func (b *Buffer) ToGray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	for i := 0; i < b.Width*b.Height; i++ {
		img.Pix[i] = b.Samples[i*b.Channels]
	}
	return img
}

// Image returns the natural standard library view of the buffer: *image.Gray
// for single-channel buffers and *image.NRGBA otherwise.
func (b *Buffer) Image() image.Image {
	if b.Channels == 1 {
		return b.ToGray()
	}
	return b.ToNRGBA()
}

// ToChannels4 converts the buffer to 4 channels. 1-channel samples are
// replicated into R, G and B; missing alpha is opaque. A buffer that already
// has 4 channels is returned as is, not copied.
func (b *Buffer) ToChannels4() *Buffer {
	return b.toFour()
}

func (b *Buffer) toFour() *Buffer {
	if b.Channels == 4 {
		return b
	}
	out := &Buffer{Width: b.Width, Height: b.Height, Channels: 4, Samples: make([]byte, b.Width*b.Height*4)}
	n := b.Width * b.Height
	for i := 0; i < n; i++ {
		src := b.Samples[i*b.Channels : (i+1)*b.Channels]
		dst := out.Samples[i*4 : i*4+4]
		if b.Channels == 1 {
			dst[0], dst[1], dst[2] = src[0], src[0], src[0]
		} else {
			dst[0], dst[1], dst[2] = src[0], src[1], src[2]
		}
		dst[3] = 255
	}
	return out
}

// Fill sets every pixel to c. Gray buffers take the luminance of c.
func (b *Buffer) Fill(c color.NRGBA) {
	px := Pixel(c, b.Channels)
	for i := 0; i < len(b.Samples); i += b.Channels {
		copy(b.Samples[i:i+b.Channels], px)
	}
}

// Pixel returns c laid out as the samples of one pixel with the given
// channel count.
func Pixel(c color.NRGBA, channels int) []byte {
	switch channels {
	case 1:
		y := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
		return []byte{uint8(y + 0.5)}
	case 3:
		return []byte{c.R, c.G, c.B}
	default:
		return []byte{c.R, c.G, c.B, c.A}
	}
}
