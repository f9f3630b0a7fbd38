package scanner

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// Pipeline runs the scan stages over one source image at a time.
//
// A Pipeline holds no per-run state and may be shared, but each Run owns a
// private arena, so concurrent runs only share the sample pool.
type Pipeline struct {
	opts Options
	pool *raster.Pool
	log  *logrus.Entry
}

// NewPipeline creates a pipeline. A nil logger discards log output.
func NewPipeline(opts Options, log *logrus.Entry) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline options: %w", err)
	}
	if log == nil {
		silent := logrus.New()
		silent.SetLevel(logrus.PanicLevel)
		log = logrus.NewEntry(silent)
	}
	return &Pipeline{
		opts: opts,
		pool: raster.NewPool(),
		log:  log.WithField("component", "pipeline"),
	}, nil
}

// Options returns the options the pipeline was built with.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Run processes src and returns the finished scan. src is never modified or
// retained.
//
// Every buffer allocated along the way is released before Run returns,
// whether the run succeeds, fails or panics. A failure is reported as a
// *StageFault naming the stage; no output is returned with it. The report
// is filled as far as the run got and is never nil.
func (p *Pipeline) Run(src *raster.Buffer) (out *raster.Buffer, report *Report, err error) {
	start := time.Now()
	report = &Report{Quad: detection.QuadNone, QuadContour: -1}
	arena := raster.NewArena(p.pool)
	stage := StageLoad

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &StageFault{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
		report.Reclaimed = arena.ReleaseAll()
		report.Buffers = arena.Stats()
		report.Duration = time.Since(start)

		fields := logrus.Fields{
			"duration":  report.Duration,
			"buffers":   report.Buffers.Allocated,
			"reclaimed": report.Reclaimed,
		}
		if err != nil {
			p.log.WithFields(fields).WithError(err).Warn("Scan failed")
			return
		}
		p.log.WithFields(fields).Info("Scan complete")
	}()

	fail := func(e error) (*raster.Buffer, *Report, error) {
		return nil, report, &StageFault{Stage: stage, Err: e}
	}

	in, err := p.load(arena, src)
	if err != nil {
		return fail(err)
	}
	report.SourceWidth, report.SourceHeight = src.Width, src.Height

	stage = StageExtract
	mark := time.Now()
	contours, err := p.extract(arena, in)
	if err != nil {
		return fail(err)
	}
	report.Contours = len(contours)
	p.stageDone(stage, mark, logrus.Fields{"contours": len(contours)})

	stage = StageDetect
	mark = time.Now()
	quad := detection.DetectQuad(contours, p.opts.ApproxEpsilon)
	report.Quad, report.QuadContour, report.QuadArea = quad.Source, quad.Contour, quad.Area
	p.stageDone(stage, mark, logrus.Fields{"source": quad.Source, "area": quad.Area})

	stage = StageRectify
	mark = time.Now()
	rectified, err := p.rectify(arena, in, quad, report)
	if err != nil {
		return fail(err)
	}
	if err := arena.ReleaseInput(in, rectified); err != nil {
		return fail(err)
	}
	p.stageDone(stage, mark, logrus.Fields{"aliased": rectified.Aliased})

	stage = StageDeskew
	mark = time.Now()
	deskewed, err := p.deskew(arena, rectified.Handle, report)
	if err != nil {
		return fail(err)
	}
	if err := arena.ReleaseInput(rectified.Handle, deskewed); err != nil {
		return fail(err)
	}
	p.stageDone(stage, mark, logrus.Fields{"aliased": deskewed.Aliased, "angle": report.SkewAngle})

	stage = StageEnhance
	mark = time.Now()
	enhanced, err := p.enhance(arena, deskewed.Handle, report)
	if err != nil {
		return fail(err)
	}
	if err := arena.ReleaseInput(deskewed.Handle, enhanced); err != nil {
		return fail(err)
	}
	p.stageDone(stage, mark, logrus.Fields{"downscaled": report.Downscaled})

	stage = StageOutput
	out, err = arena.Detach(enhanced.Handle)
	if err != nil {
		return fail(err)
	}
	return out, report, nil
}

// load copies src into the arena as a 4-channel buffer.
func (p *Pipeline) load(a *raster.Arena, src *raster.Buffer) (raster.Handle, error) {
	if src == nil {
		return raster.NoHandle, fmt.Errorf("%w: nil source", raster.ErrInvalidBuffer)
	}
	if err := src.Validate(); err != nil {
		return raster.NoHandle, err
	}
	h, buf, err := a.Alloc(src.Width, src.Height, 4)
	if err != nil {
		return raster.NoHandle, err
	}
	copy(buf.Samples, src.ToChannels4().Samples)
	return h, nil
}

func (p *Pipeline) stageDone(stage string, since time.Time, fields logrus.Fields) {
	p.log.WithFields(fields).WithFields(logrus.Fields{
		"stage":   stage,
		"elapsed": time.Since(since),
	}).Debug("Stage complete")
}
