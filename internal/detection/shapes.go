package detection

import (
	"math"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// Bounds is an axis-aligned rectangle in pixel coordinates.
//
// Width and Height count pixels inclusively, so a single pixel has a
// 1x1 bounding box.
type Bounds struct {
	X      int `json:"x"`      // Left edge (inclusive)
	Y      int `json:"y"`      // Top edge (inclusive)
	Width  int `json:"width"`  // maxX - minX + 1
	Height int `json:"height"` // maxY - minY + 1
}

// Corners returns the box corners in top-left, top-right, bottom-right,
// bottom-left order. The right and bottom corners sit at X+Width and
// Y+Height.
func (b Bounds) Corners() Quad {
	x, y := float64(b.X), float64(b.Y)
	w, h := float64(b.Width), float64(b.Height)
	return Quad{
		{X: x, Y: y},
		{X: x + w, Y: y},
		{X: x + w, Y: y + h},
		{X: x, Y: y + h},
	}
}

// Area returns Width * Height.
func (b Bounds) Area() int {
	return b.Width * b.Height
}

// BoundingRect returns the inclusive integer bounding box of points.
// An empty slice yields the zero Bounds.
func BoundingRect(points []geometry.Point) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	x0, y0 := int(math.Floor(minX)), int(math.Floor(minY))
	return Bounds{
		X:      x0,
		Y:      y0,
		Width:  int(math.Floor(maxX)) - x0 + 1,
		Height: int(math.Floor(maxY)) - y0 + 1,
	}
}

// ArcLength returns the length of the polyline through points, including the
// closing segment when closed is true.
func ArcLength(points []geometry.Point, closed bool) float64 {
	n := len(points)
	if n < 2 {
		return 0
	}
	var length float64
	for i := 1; i < n; i++ {
		length += points[i-1].Dist(points[i])
	}
	if closed {
		length += points[n-1].Dist(points[0])
	}
	return length
}

// ContourArea returns the absolute area enclosed by the polygon through
// points (shoelace formula). Fewer than three points enclose nothing.
func ContourArea(points []geometry.Point) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		p := points[i]
		q := points[(i+1)%n]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(sum) / 2
}

// ApproxPolyDP simplifies a polyline with the Douglas-Peucker algorithm so
// that no dropped point lies farther than epsilon from the result.
//
// For closed curves the split points are chosen the way OpenCV does: the
// point farthest from the first point, then the point farthest from that
// one. Both chains between them are simplified independently, so the
// result does not depend on where the tracer started a straight side.
func ApproxPolyDP(curve []geometry.Point, epsilon float64, closed bool) []geometry.Point {
	n := len(curve)
	if n <= 2 {
		return append([]geometry.Point(nil), curve...)
	}
	if !closed {
		return douglasPeucker(curve, epsilon)
	}

	b := farthestFrom(curve, curve[0])
	a := farthestFrom(curve, curve[b])
	if curve[a] == curve[b] {
		return []geometry.Point{curve[a]}
	}

	first := douglasPeucker(cyclicRange(curve, a, b), epsilon)
	second := douglasPeucker(cyclicRange(curve, b, a), epsilon)

	out := make([]geometry.Point, 0, len(first)+len(second)-2)
	out = append(out, first[:len(first)-1]...)
	out = append(out, second[:len(second)-1]...)
	return out
}

// douglasPeucker simplifies an open chain, always keeping both ends.
func douglasPeucker(chain []geometry.Point, epsilon float64) []geometry.Point {
	n := len(chain)
	if n <= 2 {
		return append([]geometry.Point(nil), chain...)
	}

	keep := make([]bool, n)
	keep[0], keep[n-1] = true, true

	type span struct{ lo, hi int }
	stack := []span{{0, n - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.hi-s.lo < 2 {
			continue
		}

		maxDist, idx := -1.0, -1
		for i := s.lo + 1; i < s.hi; i++ {
			d := segmentDistance(chain[i], chain[s.lo], chain[s.hi])
			if d > maxDist {
				maxDist, idx = d, i
			}
		}
		if maxDist > epsilon {
			keep[idx] = true
			stack = append(stack, span{s.lo, idx}, span{idx, s.hi})
		}
	}

	out := make([]geometry.Point, 0, n)
	for i, k := range keep {
		if k {
			out = append(out, chain[i])
		}
	}
	return out
}

// segmentDistance returns the distance from p to the line through a and b,
// or to a itself when a and b coincide.
func segmentDistance(p, a, b geometry.Point) float64 {
	length := a.Dist(b)
	if length == 0 {
		return p.Dist(a)
	}
	return math.Abs(a.Cross(b, p)) / length
}

func farthestFrom(points []geometry.Point, from geometry.Point) int {
	best, bestDist := 0, -1.0
	for i, p := range points {
		if d := from.Dist(p); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// cyclicRange returns points[from..to] inclusive, wrapping past the end.
func cyclicRange(points []geometry.Point, from, to int) []geometry.Point {
	n := len(points)
	count := (to-from+n)%n + 1
	out := make([]geometry.Point, count)
	for i := range out {
		out[i] = points[(from+i)%n]
	}
	return out
}
