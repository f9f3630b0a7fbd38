// Package imaging provides the pixel-level operations of the scan pipeline.
//
// Every function works on raster.Buffer values and never modifies its input.
// Functions with an Into suffix write into a caller-supplied destination so
// that pipeline stages can draw memory from their arena; the plain variants
// allocate the destination themselves.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// # Sample Conventions
//
//   - Grayscale uses ITU-R BT.601 luminance weights in 14-bit fixed point
//     (0.299*R + 0.587*G + 0.114*B, rounded).
//   - Binary images are single-channel buffers holding only 0 and 255.
//   - Four-channel buffers hold straight RGBA; every filter in this package
//     treats alpha as a regular channel.
//
// # Libraries
//
// Convolutions (Gaussian smoothing, sharpening) and grey-level histograms are
// computed with github.com/anthonynsimon/bild. Area-averaging downscaling goes
// through github.com/disintegration/imaging. Border colours are parsed with
// github.com/lucasb-eyer/go-colorful. Canny edge detection, Otsu
// thresholding, histogram equalization and the perspective / affine warps are
// implemented here because none of those libraries offer them.
package imaging
