package scanner

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// testOptions are the default options without the yield delay.
func testOptions() Options {
	opts := DefaultOptions()
	opts.YieldDelay = 0
	return opts
}

func newTestPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	p, err := NewPipeline(opts, nil)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	return p
}

// createTestImage returns an RGBA buffer filled with c.
func createTestImage(t *testing.T, width, height int, c color.NRGBA) *raster.Buffer {
	t.Helper()
	buf, err := raster.New(width, height, 4)
	if err != nil {
		t.Fatalf("raster.New failed: %v", err)
	}
	buf.Fill(c)
	return buf
}

// drawRotatedRect paints a w x h rectangle centred on (cx, cy) and turned by
// deg degrees (clockwise on screen).
func drawRotatedRect(buf *raster.Buffer, cx, cy, w, h, deg float64, c color.NRGBA) {
	rad := deg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	px := raster.Pixel(c, buf.Channels)
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			u := dx*cos + dy*sin
			v := -dx*sin + dy*cos
			if math.Abs(u) <= w/2 && math.Abs(v) <= h/2 {
				o := buf.Offset(x, y)
				copy(buf.Samples[o:o+buf.Channels], px)
			}
		}
	}
}

var (
	black = color.NRGBA{0, 0, 0, 255}
	white = color.NRGBA{255, 255, 255, 255}
)

func TestPipeline_RotatedRectangleEndToEnd(t *testing.T) {
	src := createTestImage(t, 400, 300, black)
	drawRotatedRect(src, 200, 150, 200, 120, 20, white)

	p := newTestPipeline(t, testOptions())
	out, report, err := p.Run(src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out == nil {
		t.Fatal("expected output")
	}
	if report.Quad == detection.QuadNone {
		t.Errorf("expected a document outline, got none (%d contours)", report.Contours)
	}

	angle, ok, err := SkewAngle(out)
	if err != nil {
		t.Fatalf("SkewAngle failed: %v", err)
	}
	if !ok {
		t.Fatal("output has no foreground to measure")
	}
	if math.Abs(angle) > 1 {
		t.Errorf("residual skew %.2f degrees, want within 1", angle)
	}

	before, _, err := SkewAngle(src)
	if err != nil {
		t.Fatalf("SkewAngle failed: %v", err)
	}
	if math.Abs(math.Abs(before)-20) > 1 {
		t.Errorf("source skew measured as %.2f, want about 20", before)
	}
}

func TestPipeline_Idempotent(t *testing.T) {
	src := createTestImage(t, 320, 240, color.NRGBA{30, 40, 50, 255})
	drawRotatedRect(src, 160, 120, 180, 140, 7, color.NRGBA{230, 220, 200, 255})
	drawRotatedRect(src, 150, 110, 60, 10, 7, color.NRGBA{20, 20, 20, 255})

	p := newTestPipeline(t, testOptions())
	first, _, err := p.Run(src)
	if err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	second, _, err := p.Run(src)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if !first.Equal(second) {
		t.Error("two runs over the same source differ")
	}
}

func TestPipeline_DoesNotModifySource(t *testing.T) {
	src := createTestImage(t, 120, 90, black)
	drawRotatedRect(src, 60, 45, 70, 40, 10, white)
	before := src.Clone()

	p := newTestPipeline(t, testOptions())
	if _, _, err := p.Run(src); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !src.Equal(before) {
		t.Error("source was modified")
	}
}

func TestPipeline_NoContoursFallsThrough(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		fill          color.NRGBA
		wantW, wantH  int
		deskewAliased bool
	}{
		{"uniform gray", 300, 200, color.NRGBA{128, 128, 128, 255}, 300, 200, false},
		{"uniform black", 300, 200, black, 300, 200, true},
		{"wide uniform gray", 2048, 100, color.NRGBA{90, 90, 90, 255}, 1024, 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := createTestImage(t, tt.width, tt.height, tt.fill)

			p := newTestPipeline(t, testOptions())
			out, report, err := p.Run(src)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if report.Contours != 0 {
				t.Errorf("contours: got %d, want 0", report.Contours)
			}
			if report.Quad != detection.QuadNone || !report.RectifyAliased {
				t.Errorf("rectify should be bypassed, got quad=%s aliased=%v", report.Quad, report.RectifyAliased)
			}
			if report.DeskewAliased != tt.deskewAliased {
				t.Errorf("deskew aliased: got %v, want %v", report.DeskewAliased, tt.deskewAliased)
			}
			if out.Width != tt.wantW || out.Height != tt.wantH {
				t.Errorf("output: got %dx%d, want %dx%d", out.Width, out.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestPipeline_BlendBounds(t *testing.T) {
	tests := []struct {
		name string
		fill color.NRGBA
		want [4]byte
	}{
		{"all black", black, [4]byte{0, 0, 0, 255}},
		{"all white", white, [4]byte{255, 255, 255, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := createTestImage(t, 64, 48, tt.fill)

			p := newTestPipeline(t, testOptions())
			out, _, err := p.Run(src)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			for y := 0; y < out.Height; y++ {
				for x := 0; x < out.Width; x++ {
					o := out.Offset(x, y)
					got := [4]byte{out.Samples[o], out.Samples[o+1], out.Samples[o+2], out.Samples[o+3]}
					if got != tt.want {
						t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, tt.want)
					}
				}
			}
		})
	}
}

func TestPipeline_ReleasesEveryBuffer(t *testing.T) {
	src := createTestImage(t, 200, 150, black)
	drawRotatedRect(src, 100, 75, 120, 80, 15, white)

	p := newTestPipeline(t, testOptions())
	_, report, err := p.Run(src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	b := report.Buffers
	if b.Live != 0 {
		t.Errorf("live buffers after run: %d", b.Live)
	}
	if b.Detached != 1 {
		t.Errorf("detached: got %d, want 1 (the output)", b.Detached)
	}
	if b.Allocated != b.Released+b.Detached {
		t.Errorf("allocated %d != released %d + detached %d", b.Allocated, b.Released, b.Detached)
	}
	if report.Reclaimed != 0 {
		t.Errorf("reclaimed by sweep: got %d, want 0", report.Reclaimed)
	}
}

func TestPipeline_PanicBecomesStageFault(t *testing.T) {
	opts := testOptions()
	opts.Ordering = func(detection.Quad) Corners { panic("ordering exploded") }

	src := createTestImage(t, 200, 150, black)
	drawRotatedRect(src, 100, 75, 120, 80, 0, white)

	p := newTestPipeline(t, opts)
	out, report, err := p.Run(src)
	if out != nil {
		t.Error("no output may be returned with a fault")
	}

	var fault *StageFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected *StageFault, got %v", err)
	}
	if fault.Stage != StageRectify {
		t.Errorf("stage: got %q, want %q", fault.Stage, StageRectify)
	}
	if report == nil {
		t.Fatal("report should be returned with a fault")
	}
	if report.Buffers.Live != 0 || report.Buffers.Detached != 0 {
		t.Errorf("buffers after fault: %+v", report.Buffers)
	}
	if report.Reclaimed == 0 {
		t.Error("the sweep should have reclaimed the source copy")
	}
}

func TestPipeline_InvalidSource(t *testing.T) {
	p := newTestPipeline(t, testOptions())

	tests := []struct {
		name string
		src  *raster.Buffer
	}{
		{"nil", nil},
		{"short samples", &raster.Buffer{Width: 4, Height: 4, Channels: 4, Samples: make([]byte, 10)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := p.Run(tt.src)
			var fault *StageFault
			if !errors.As(err, &fault) || fault.Stage != StageLoad {
				t.Fatalf("expected load StageFault, got %v", err)
			}
			if !errors.Is(err, raster.ErrInvalidBuffer) {
				t.Errorf("expected ErrInvalidBuffer in chain, got %v", err)
			}
		})
	}
}

func TestPipeline_GrayscaleSourceAccepted(t *testing.T) {
	src, err := raster.New(80, 60, 1)
	if err != nil {
		t.Fatalf("raster.New failed: %v", err)
	}
	src.Fill(white)

	p := newTestPipeline(t, testOptions())
	out, _, err := p.Run(src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Channels != 4 {
		t.Errorf("channels: got %d, want 4", out.Channels)
	}
}

func TestRectify_CornerOrderingProperty(t *testing.T) {
	p := newTestPipeline(t, testOptions())
	arena := raster.NewArena(nil)
	h, err := arena.Adopt(createTestImage(t, 120, 70, white))
	if err != nil {
		t.Fatalf("Adopt failed: %v", err)
	}

	quad := detection.QuadResult{
		Quad:   detection.Quad{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 50}, {X: 0, Y: 50}},
		Source: detection.QuadApprox,
	}
	report := &Report{}
	res, err := p.rectify(arena, h, quad, report)
	if err != nil {
		t.Fatalf("rectify failed: %v", err)
	}
	if res.Aliased {
		t.Fatal("expected an owned result")
	}
	out := arena.Get(res.Handle)
	if out.Width != 100 || out.Height != 50 {
		t.Errorf("rectified: got %dx%d, want 100x50", out.Width, out.Height)
	}
}

func TestRectify_DegenerateQuadAliases(t *testing.T) {
	p := newTestPipeline(t, testOptions())
	arena := raster.NewArena(nil)
	h, err := arena.Adopt(createTestImage(t, 50, 50, white))
	if err != nil {
		t.Fatalf("Adopt failed: %v", err)
	}

	tests := []struct {
		name string
		quad detection.Quad
	}{
		{"single point", detection.Quad{{X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}}},
		{"flat", detection.Quad{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 0.5}, {X: 0, Y: 0.5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := &Report{}
			res, err := p.rectify(arena, h, detection.QuadResult{Quad: tt.quad, Source: detection.QuadApprox}, report)
			if err != nil {
				t.Fatalf("rectify failed: %v", err)
			}
			if !res.Aliased || res.Handle != h {
				t.Errorf("expected alias of the input, got %+v", res)
			}
			if report.Degenerate == "" {
				t.Error("degenerate geometry should be recorded")
			}
		})
	}
}

func TestEnhance_Downscale(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"2048 wide is capped", 2048, 300, 1024, 150},
		{"800 wide is kept", 800, 300, 800, 300},
	}

	p := newTestPipeline(t, testOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arena := raster.NewArena(raster.NewPool())
			h, err := arena.Adopt(createTestImage(t, tt.width, tt.height, color.NRGBA{200, 150, 100, 255}))
			if err != nil {
				t.Fatalf("Adopt failed: %v", err)
			}

			report := &Report{}
			res, err := p.enhance(arena, h, report)
			if err != nil {
				t.Fatalf("enhance failed: %v", err)
			}
			if res.Aliased {
				t.Error("enhance must return a new buffer")
			}
			out := arena.Get(res.Handle)
			if out.Width != tt.wantW || out.Height != tt.wantH {
				t.Errorf("got %dx%d, want %dx%d", out.Width, out.Height, tt.wantW, tt.wantH)
			}
			if report.Downscaled != (tt.width > 1024) {
				t.Errorf("downscaled flag: got %v", report.Downscaled)
			}
		})
	}
}

func TestDeskew_StraightensRotatedBlob(t *testing.T) {
	src := createTestImage(t, 300, 300, black)
	drawRotatedRect(src, 150, 150, 160, 100, 12, white)

	p := newTestPipeline(t, testOptions())
	arena := raster.NewArena(nil)
	h, err := arena.Adopt(src)
	if err != nil {
		t.Fatalf("Adopt failed: %v", err)
	}

	report := &Report{}
	res, err := p.deskew(arena, h, report)
	if err != nil {
		t.Fatalf("deskew failed: %v", err)
	}
	if res.Aliased {
		t.Fatal("expected a rotated copy")
	}
	if math.Abs(report.SkewAngle-12) > 1 {
		t.Errorf("measured angle %.2f, want about 12", report.SkewAngle)
	}

	angle, ok, err := SkewAngle(arena.Get(res.Handle))
	if err != nil || !ok {
		t.Fatalf("SkewAngle: ok=%v err=%v", ok, err)
	}
	if math.Abs(angle) > 1 {
		t.Errorf("residual angle %.2f, want within 1", angle)
	}
}

func TestNewPipeline_RejectsBadOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.ApproxEpsilon = 0
	if _, err := NewPipeline(opts, nil); err == nil {
		t.Error("expected error for zero epsilon")
	}

	opts = DefaultOptions()
	opts.Ordering = nil
	if _, err := NewPipeline(opts, nil); err == nil {
		t.Error("expected error for missing corner ordering")
	}
}
