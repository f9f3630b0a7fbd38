// Package imageio moves scan images between files and raster buffers.
//
// Loader decodes sources: PNG, JPEG, GIF, BMP, TIFF and WebP images with
// EXIF orientation applied, and PDF pages rendered through MuPDF. Anything
// else is rejected with ErrUnsupported. Decoded sources are kept in a small
// bounded cache keyed by path and page.
//
// The encode helpers write finished scans as PNG or JPEG, to a writer, a file
// or a base64 string for transport inside JSON.
package imageio
