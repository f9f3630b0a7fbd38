package detection

import (
	"testing"

	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// createBinaryImage returns a width x height single-channel image with the
// given pixels set to 255.
func createBinaryImage(t *testing.T, width, height int, fill func(x, y int) bool) *raster.Buffer {
	t.Helper()
	buf, err := raster.New(width, height, 1)
	if err != nil {
		t.Fatalf("raster.New failed: %v", err)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if fill(x, y) {
				buf.Set(x, y, 0, 255)
			}
		}
	}
	return buf
}

func inRect(x0, y0, x1, y1 int) func(x, y int) bool {
	return func(x, y int) bool {
		return x >= x0 && x <= x1 && y >= y0 && y <= y1
	}
}

func TestFindContours_FilledSquare(t *testing.T) {
	img := createBinaryImage(t, 7, 7, inRect(2, 2, 4, 4))

	contours, err := FindContours(img, ListAll)
	if err != nil {
		t.Fatalf("FindContours failed: %v", err)
	}
	if len(contours) != 1 {
		t.Fatalf("got %d contours, want 1", len(contours))
	}

	c := contours[0]
	if c.Hole || c.Parent != -1 {
		t.Errorf("got hole=%v parent=%d, want outer border of the frame", c.Hole, c.Parent)
	}
	if len(c.Points) != 4 {
		t.Errorf("got %d compressed points, want 4: %v", len(c.Points), c.Points)
	}
	if a := ContourArea(c.Points); a != 4 {
		t.Errorf("area: got %v, want 4", a)
	}
	if b := BoundingRect(c.Points); b != (Bounds{X: 2, Y: 2, Width: 3, Height: 3}) {
		t.Errorf("bounds: got %+v", b)
	}
}

func TestFindContours_NestedHierarchy(t *testing.T) {
	ring := func(x, y int) bool {
		inOuter := x >= 1 && x <= 8 && y >= 1 && y <= 8
		inInner := x >= 2 && x <= 7 && y >= 2 && y <= 7
		return inOuter && !inInner
	}
	core := inRect(4, 4, 5, 5)
	img := createBinaryImage(t, 10, 10, func(x, y int) bool { return ring(x, y) || core(x, y) })

	contours, err := FindContours(img, ListAll)
	if err != nil {
		t.Fatalf("FindContours failed: %v", err)
	}
	if len(contours) != 3 {
		t.Fatalf("got %d contours, want 3", len(contours))
	}

	want := []struct {
		hole   bool
		parent int
	}{
		{false, -1}, // ring outside
		{true, 0},   // ring inside
		{false, 1},  // core
	}
	for i, w := range want {
		if contours[i].Hole != w.hole || contours[i].Parent != w.parent {
			t.Errorf("contour %d: got hole=%v parent=%d, want hole=%v parent=%d",
				i, contours[i].Hole, contours[i].Parent, w.hole, w.parent)
		}
	}

	external, err := FindContours(img, External)
	if err != nil {
		t.Fatalf("FindContours failed: %v", err)
	}
	if len(external) != 1 {
		t.Fatalf("external: got %d contours, want 1", len(external))
	}
	if b := BoundingRect(external[0].Points); b != (Bounds{X: 1, Y: 1, Width: 8, Height: 8}) {
		t.Errorf("external bounds: got %+v", b)
	}
}

func TestFindContours_TwoBlobs(t *testing.T) {
	img := createBinaryImage(t, 12, 6, func(x, y int) bool {
		return inRect(1, 1, 3, 4)(x, y) || inRect(7, 1, 10, 4)(x, y)
	})

	contours, err := FindContours(img, External)
	if err != nil {
		t.Fatalf("FindContours failed: %v", err)
	}
	if len(contours) != 2 {
		t.Fatalf("got %d contours, want 2", len(contours))
	}
	if a, b := ContourArea(contours[0].Points), ContourArea(contours[1].Points); a != 6 || b != 9 {
		t.Errorf("areas: got %v and %v, want 6 and 9", a, b)
	}
}

func TestFindContours_SinglePixel(t *testing.T) {
	img := createBinaryImage(t, 5, 5, func(x, y int) bool { return x == 2 && y == 3 })

	contours, err := FindContours(img, ListAll)
	if err != nil {
		t.Fatalf("FindContours failed: %v", err)
	}
	if len(contours) != 1 || len(contours[0].Points) != 1 {
		t.Fatalf("got %v, want one single-point contour", contours)
	}
	if p := contours[0].Points[0]; p.X != 2 || p.Y != 3 {
		t.Errorf("point: got %v, want (2,3)", p)
	}
}

func TestFindContours_TouchesImageEdge(t *testing.T) {
	img := createBinaryImage(t, 6, 4, func(x, y int) bool { return true })

	contours, err := FindContours(img, External)
	if err != nil {
		t.Fatalf("FindContours failed: %v", err)
	}
	if len(contours) != 1 {
		t.Fatalf("got %d contours, want 1", len(contours))
	}
	if b := BoundingRect(contours[0].Points); b != (Bounds{X: 0, Y: 0, Width: 6, Height: 4}) {
		t.Errorf("bounds: got %+v", b)
	}
}

func TestFindContours_Empty(t *testing.T) {
	img := createBinaryImage(t, 8, 8, func(x, y int) bool { return false })

	contours, err := FindContours(img, ListAll)
	if err != nil {
		t.Fatalf("FindContours failed: %v", err)
	}
	if len(contours) != 0 {
		t.Errorf("got %d contours, want 0", len(contours))
	}
}

func TestFindContours_RejectsColor(t *testing.T) {
	buf, err := raster.New(4, 4, 4)
	if err != nil {
		t.Fatalf("raster.New failed: %v", err)
	}
	if _, err := FindContours(buf, ListAll); err == nil {
		t.Error("expected error for 4-channel input")
	}
}
