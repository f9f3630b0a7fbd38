// Package raster provides the pixel buffer shared by every stage of the scan
// pipeline, plus the arena that tracks who owns each buffer.
//
// A Buffer is a plain row-major grid of 8-bit samples with 1 (gray or binary),
// 3 (RGB) or 4 (straight RGBA) channels. Buffers convert to and from the
// standard library image types without premultiplying alpha.
//
// # Ownership
//
// Pipeline stages never free memory directly. Each run allocates its buffers
// from an Arena and refers to them by Handle. A stage returns a Result that is
// either Owned (a new handle) or Aliased (the handle it was given). The arena
// releases every handle exactly once; releasing twice is reported as
// ErrDoubleRelease instead of silently corrupting the pool.
//
// Released sample slices go back to a Pool keyed by size so that repeated runs
// over same-sized pages reuse memory.
package raster
