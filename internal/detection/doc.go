// Package detection finds document outlines in binary images.
//
// It works on the single-channel edge and threshold maps produced by the
// imaging package and knows nothing about colour or buffer ownership.
//
// # Pipeline Pieces
//
//   - FindContours: Suzuki-Abe border following with parent links, in
//     ListAll or External mode
//   - ApproxPolyDP, ArcLength, ContourArea, BoundingRect: polygon helpers
//   - ConvexHull, MinAreaRect: rotating calipers over the hull
//   - DetectQuad: four-vertex candidate selection with a bounding box
//     fallback
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Contour points are pixel positions, so they are whole numbers
//
// Areas computed from contour points follow the polygon through the pixel
// centres. A one-pixel-wide line therefore encloses zero area even though its
// bounding box does not.
package detection
