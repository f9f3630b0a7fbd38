package detection

import (
	"math"
	"sort"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// Size is a width and height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RotatedRect is a rectangle of the given Size centred on Center and turned
// by Angle degrees. Angle is the direction of the Width side measured from
// the X axis in image coordinates (Y down), so positive angles lean the
// side downward to the right.
type RotatedRect struct {
	Center geometry.Point `json:"center"`
	Size   Size           `json:"size"`
	Angle  float64        `json:"angle"`
}

// Normalized returns the same rectangle described with Angle in (-45, 45].
// Every quarter turn swaps Width and Height.
func (r RotatedRect) Normalized() RotatedRect {
	for r.Angle > 45 {
		r.Angle -= 90
		r.Size.Width, r.Size.Height = r.Size.Height, r.Size.Width
	}
	for r.Angle <= -45 {
		r.Angle += 90
		r.Size.Width, r.Size.Height = r.Size.Height, r.Size.Width
	}
	return r
}

// ConvexHull returns the convex hull of points using Andrew's monotone chain.
// Collinear points on the hull are dropped. The result starts at the
// leftmost (then topmost) point.
func ConvexHull(points []geometry.Point) []geometry.Point {
	pts := append([]geometry.Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	// Deduplicate.
	uniq := pts[:0]
	for _, p := range pts {
		if len(uniq) == 0 || p != uniq[len(uniq)-1] {
			uniq = append(uniq, p)
		}
	}
	pts = uniq
	if len(pts) < 3 {
		return pts
	}

	hull := make([]geometry.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && hull[len(hull)-2].Cross(hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && hull[len(hull)-2].Cross(hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// MinAreaRect returns the smallest-area rectangle enclosing points.
//
// # Algorithm (rotating calipers)
//
// The optimal rectangle has one side collinear with an edge of the convex
// hull. For each hull edge the hull is projected onto the edge direction and
// its normal; the edge with the smallest product of extents wins, the first
// one on ties. The returned Angle is that edge's direction and is not
// normalised; see RotatedRect.Normalized.
func MinAreaRect(points []geometry.Point) RotatedRect {
	hull := ConvexHull(points)
	switch len(hull) {
	case 0:
		return RotatedRect{}
	case 1:
		return RotatedRect{Center: hull[0]}
	}

	best := RotatedRect{}
	bestArea := math.Inf(1)
	n := len(hull)
	if n == 2 {
		n = 1
	}
	for i := 0; i < n; i++ {
		a, b := hull[i], hull[(i+1)%len(hull)]
		edge := b.Sub(a)
		length := math.Hypot(edge.X, edge.Y)
		if length == 0 {
			continue
		}
		u := edge.Scale(1 / length)
		v := geometry.Pt(-u.Y, u.X)

		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			d := p.Sub(a)
			pu := d.X*u.X + d.Y*u.Y
			pv := d.X*v.X + d.Y*v.Y
			minU, maxU = math.Min(minU, pu), math.Max(maxU, pu)
			minV, maxV = math.Min(minV, pv), math.Max(maxV, pv)
		}

		area := (maxU - minU) * (maxV - minV)
		if area < bestArea {
			bestArea = area
			mu, mv := (minU+maxU)/2, (minV+maxV)/2
			best = RotatedRect{
				Center: a.Add(u.Scale(mu)).Add(v.Scale(mv)),
				Size:   Size{Width: maxU - minU, Height: maxV - minV},
				Angle:  math.Atan2(u.Y, u.X) * 180 / math.Pi,
			}
		}
	}
	return best
}
