package imageio

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// DefaultJPEGQuality is used when a JPEG quality of zero is requested.
const DefaultJPEGQuality = 92

// Format names accepted by Encode.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// FormatFromPath picks the export format from a file extension, defaulting
// to PNG.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG
	default:
		return FormatPNG
	}
}

// Encode writes buf to w as PNG or JPEG. quality only applies to JPEG.
func Encode(w io.Writer, buf *raster.Buffer, format string, quality int) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	img := buf.ToNRGBA()

	switch format {
	case FormatPNG, "":
		return imaging.Encode(w, img, imaging.PNG)
	case FormatJPEG, "jpg":
		if quality <= 0 {
			quality = DefaultJPEGQuality
		}
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// EncodePNG writes buf to w as PNG.
func EncodePNG(w io.Writer, buf *raster.Buffer) error {
	return Encode(w, buf, FormatPNG, 0)
}

// EncodeJPEG writes buf to w as JPEG.
func EncodeJPEG(w io.Writer, buf *raster.Buffer, quality int) error {
	return Encode(w, buf, FormatJPEG, quality)
}

// Save writes buf to path in the format its extension names.
func Save(path string, buf *raster.Buffer, quality int) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	if err := imaging.Save(buf.ToNRGBA(), path, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// Base64PNG returns buf as a base64-encoded PNG.
func Base64PNG(buf *raster.Buffer) (string, error) {
	var b bytes.Buffer
	if err := EncodePNG(&b, buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b.Bytes()), nil
}
