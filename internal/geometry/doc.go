// Package geometry holds the planar math used by the scan pipeline: points,
// 3x3 perspective transforms, 2x3 affine transforms and the small linear
// solver that derives a perspective transform from four point pairs.
//
// Coordinates follow image convention: origin at the top-left, X increasing
// rightward, Y increasing downward. Angles are in degrees; a positive angle
// passed to RotationMatrix2D turns image content counter-clockwise as seen on
// screen.
package geometry
