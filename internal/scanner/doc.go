// Package scanner turns a photographed or rendered page into a cropped,
// deskewed and contrast-enhanced scan.
//
// A Pipeline runs the stages in a fixed order:
//
//  1. Extract: grayscale, 5x5 Gaussian blur, Canny, contour tracing
//  2. Detect: pick the document quad, or the bounding box of the largest
//     contour when nothing simplifies to four corners
//  3. Rectify: order the corners and warp the quad onto an upright rectangle
//  4. Deskew: rotate away the residual tilt of the dominant foreground blob
//  5. Enhance: denoise, equalize, sharpen, blend and cap the width
//
// Stages that have nothing to do (no quad, degenerate geometry, no
// foreground) pass their input through as an alias instead of failing, so a
// run only errors on a genuine fault.
//
// A Controller wraps one Pipeline in the state machine a host drives:
// engine readiness, source loading, invocation, reset and status text.
package scanner
