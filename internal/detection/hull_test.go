package detection

import (
	"math"
	"testing"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

func rotatedCorners(center geometry.Point, w, h, deg float64) []geometry.Point {
	rad := deg * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)
	half := []geometry.Point{{X: -w / 2, Y: -h / 2}, {X: w / 2, Y: -h / 2}, {X: w / 2, Y: h / 2}, {X: -w / 2, Y: h / 2}}
	out := make([]geometry.Point, len(half))
	for i, p := range half {
		out[i] = geometry.Pt(center.X+p.X*c-p.Y*s, center.Y+p.X*s+p.Y*c)
	}
	return out
}

func TestConvexHull(t *testing.T) {
	pts := []geometry.Point{
		{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4},
		{X: 2, Y: 2}, {X: 1, Y: 3}, {X: 2, Y: 0}, {X: 0, Y: 0},
	}

	hull := ConvexHull(pts)
	if len(hull) != 4 {
		t.Fatalf("got %d hull points, want 4: %v", len(hull), hull)
	}
	if hull[0] != (geometry.Point{X: 0, Y: 0}) {
		t.Errorf("hull should start at the leftmost point, got %v", hull[0])
	}
	if a := ContourArea(hull); a != 16 {
		t.Errorf("hull area: got %v, want 16", a)
	}
}

func TestConvexHull_Small(t *testing.T) {
	if got := ConvexHull(nil); len(got) != 0 {
		t.Errorf("empty: got %v", got)
	}
	two := []geometry.Point{{X: 1, Y: 1}, {X: 5, Y: 1}, {X: 1, Y: 1}}
	if got := ConvexHull(two); len(got) != 2 {
		t.Errorf("two distinct points: got %v", got)
	}
}

func TestMinAreaRect(t *testing.T) {
	tests := []struct {
		name   string
		angle  float64
		w, h   float64
		wantA  float64
		wantW  float64
		wantH  float64
		center geometry.Point
	}{
		{"axis aligned", 0, 20, 10, 0, 20, 10, geometry.Pt(50, 50)},
		{"rotated 30", 30, 20, 10, 30, 20, 10, geometry.Pt(50, 50)},
		{"rotated -20", -20, 40, 16, -20, 40, 16, geometry.Pt(80, 60)},
		{"rotated 70", 70, 20, 10, -20, 10, 20, geometry.Pt(40, 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := MinAreaRect(rotatedCorners(tt.center, tt.w, tt.h, tt.angle)).Normalized()

			if math.Abs(r.Angle-tt.wantA) > 1e-6 {
				t.Errorf("angle: got %v, want %v", r.Angle, tt.wantA)
			}
			if math.Abs(r.Size.Width-tt.wantW) > 1e-6 || math.Abs(r.Size.Height-tt.wantH) > 1e-6 {
				t.Errorf("size: got %vx%v, want %vx%v", r.Size.Width, r.Size.Height, tt.wantW, tt.wantH)
			}
			if r.Center.Dist(tt.center) > 1e-6 {
				t.Errorf("center: got %v, want %v", r.Center, tt.center)
			}
		})
	}
}

func TestMinAreaRect_Degenerate(t *testing.T) {
	if r := MinAreaRect(nil); r != (RotatedRect{}) {
		t.Errorf("empty: got %+v", r)
	}

	r := MinAreaRect([]geometry.Point{{X: 2, Y: 3}})
	if r.Center != (geometry.Point{X: 2, Y: 3}) || r.Size != (Size{}) {
		t.Errorf("single point: got %+v", r)
	}

	r = MinAreaRect([]geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}})
	if r.Size.Width != 10 || r.Size.Height != 0 || r.Angle != 0 {
		t.Errorf("segment: got %+v", r)
	}
}

func TestRotatedRect_Normalized(t *testing.T) {
	tests := []struct {
		in, want RotatedRect
	}{
		{RotatedRect{Size: Size{Width: 4, Height: 2}, Angle: 45}, RotatedRect{Size: Size{Width: 4, Height: 2}, Angle: 45}},
		{RotatedRect{Size: Size{Width: 4, Height: 2}, Angle: -45}, RotatedRect{Size: Size{Width: 2, Height: 4}, Angle: 45}},
		{RotatedRect{Size: Size{Width: 4, Height: 2}, Angle: 90}, RotatedRect{Size: Size{Width: 2, Height: 4}, Angle: 0}},
		{RotatedRect{Size: Size{Width: 4, Height: 2}, Angle: 180}, RotatedRect{Size: Size{Width: 4, Height: 2}, Angle: 0}},
	}
	for _, tt := range tests {
		if got := tt.in.Normalized(); got != tt.want {
			t.Errorf("Normalized(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
