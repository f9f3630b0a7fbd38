package scanner

import (
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// Corners is a quad with its corner roles assigned.
type Corners struct {
	TopLeft     geometry.Point `json:"top_left"`
	TopRight    geometry.Point `json:"top_right"`
	BottomRight geometry.Point `json:"bottom_right"`
	BottomLeft  geometry.Point `json:"bottom_left"`
}

// Array returns the corners clockwise from the top-left.
func (c Corners) Array() [4]geometry.Point {
	return [4]geometry.Point{c.TopLeft, c.TopRight, c.BottomRight, c.BottomLeft}
}

// CornerOrdering assigns roles to the four points of a detected quad.
type CornerOrdering func(q detection.Quad) Corners

// Names accepted by CornerOrderingByName.
const (
	OrderingX      = "x"
	OrderingAngle  = "angle"
	OrderingLegacy = "legacy"
)

// CornerOrderingByName returns the ordering registered under name. An empty
// name selects OrderCornersByX.
func CornerOrderingByName(name string) (CornerOrdering, error) {
	switch name {
	case "", OrderingX:
		return OrderCornersByX, nil
	case OrderingAngle:
		return OrderCornersByAngle, nil
	case OrderingLegacy:
		return OrderCornersLegacy, nil
	default:
		return nil, fmt.Errorf("unknown corner ordering %q (want %s, %s or %s)", name, OrderingX, OrderingAngle, OrderingLegacy)
	}
}

// bySum sorts the quad by x+y, keeping the input order among equal sums.
func bySum(q detection.Quad) [4]geometry.Point {
	pts := q
	sort.SliceStable(pts[:], func(i, j int) bool {
		return pts[i].X+pts[i].Y < pts[j].X+pts[j].Y
	})
	return pts
}

// OrderCornersByX takes the smallest x+y as top-left and the largest as
// bottom-right. Of the two remaining points the one with the larger x is
// top-right.
//
// Only x is compared for the middle pair, which is right for documents
// tilted by less than 45 degrees and wrong beyond that.
func OrderCornersByX(q detection.Quad) Corners {
	s := bySum(q)
	c := Corners{TopLeft: s[0], BottomRight: s[3], TopRight: s[1], BottomLeft: s[2]}
	if s[2].X > s[1].X {
		c.TopRight, c.BottomLeft = s[2], s[1]
	}
	return c
}

// OrderCornersLegacy reproduces the browser scanner this service replaced:
// the middle point with the smaller x becomes top-right. For an upright
// page this swaps the top-right and bottom-left roles, so the warp
// transposes the page. Kept for comparing outputs with that scanner.
func OrderCornersLegacy(q detection.Quad) Corners {
	s := bySum(q)
	c := Corners{TopLeft: s[0], BottomRight: s[3], TopRight: s[1], BottomLeft: s[2]}
	if s[2].X < s[1].X {
		c.TopRight, c.BottomLeft = s[2], s[1]
	}
	return c
}

// OrderCornersByAngle sorts the points by their angle around the centroid,
// which walks the quad clockwise on screen, and starts the walk at the point
// with the smallest x+y. It stays correct for any rotation of a convex quad.
func OrderCornersByAngle(q detection.Quad) Corners {
	var cx, cy float64
	for _, p := range q {
		cx += p.X / 4
		cy += p.Y / 4
	}
	pts := q
	sort.SliceStable(pts[:], func(i, j int) bool {
		return math.Atan2(pts[i].Y-cy, pts[i].X-cx) < math.Atan2(pts[j].Y-cy, pts[j].X-cx)
	})

	start := 0
	for i := 1; i < 4; i++ {
		if pts[i].X+pts[i].Y < pts[start].X+pts[start].Y {
			start = i
		}
	}
	return Corners{
		TopLeft:     pts[start],
		TopRight:    pts[(start+1)%4],
		BottomRight: pts[(start+2)%4],
		BottomLeft:  pts[(start+3)%4],
	}
}

// DestinationSize returns the size of the upright rectangle the corners are
// warped onto: the longer of each pair of opposite sides, floored.
func DestinationSize(c Corners) (width, height int) {
	width = max(int(math.Floor(c.BottomLeft.Dist(c.BottomRight))), int(math.Floor(c.TopLeft.Dist(c.TopRight))))
	height = max(int(math.Floor(c.TopRight.Dist(c.BottomRight))), int(math.Floor(c.TopLeft.Dist(c.BottomLeft))))
	return width, height
}
