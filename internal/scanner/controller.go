package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// Controller drives one Pipeline through the scan state machine:
//
//	AwaitingEngine -> EngineReady          engine signals (once)
//	any            -> SourceLoaded         Load, once the engine is ready
//	SourceLoaded, Done, Error -> Processing Invoke
//	Processing     -> Done | Error         run finishes
//	any            -> EngineReady          Reset
//
// A source loaded before the engine is ready is kept, and readiness then
// leads straight to SourceLoaded. Engine readiness is picked up lazily
// whenever the controller is consulted.
//
// All methods are safe for concurrent use. The lock is not held while the
// pipeline runs, so Status can be read during processing.
type Controller struct {
	engine   Readiness
	pipeline *Pipeline
	delay    time.Duration
	log      *logrus.Entry
	onStatus func(Status)

	mu         sync.Mutex
	state      State
	message    string
	source     *raster.Buffer
	output     *raster.Buffer
	report     *Report
	generation uint64
	// running is set from the Processing announcement until the invoke
	// returns, including runs a Load or Reset has already superseded.
	running bool
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithStatusListener registers fn to receive every status change. fn is
// called without the controller lock held and must not block for long.
func WithStatusListener(fn func(Status)) ControllerOption {
	return func(c *Controller) {
		c.onStatus = fn
	}
}

// WithLogger sets the logger used for state transitions.
func WithLogger(log *logrus.Entry) ControllerOption {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// NewController creates a controller waiting for engine.
func NewController(engine Readiness, pipeline *Pipeline, opts ...ControllerOption) *Controller {
	c := &Controller{
		engine:   engine,
		pipeline: pipeline,
		delay:    pipeline.Options().YieldDelay,
		log:      pipeline.log,
		state:    AwaitingEngine,
		message:  MsgWaitingForEngine,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "controller")
	return c
}

// Status returns the current state and status text.
func (c *Controller) Status() Status {
	c.mu.Lock()
	changed := c.syncEngineLocked()
	st := c.statusLocked()
	c.mu.Unlock()

	if changed {
		c.notify(st)
	}
	return st
}

// Load replaces the source image and discards any previous output. The
// buffer is copied. A load during Processing makes the running invoke
// discard its result.
func (c *Controller) Load(src *raster.Buffer) error {
	if src == nil {
		return fmt.Errorf("%w: nil source", raster.ErrInvalidBuffer)
	}
	if err := src.Validate(); err != nil {
		return err
	}
	copied := src.Clone()

	c.mu.Lock()
	c.syncEngineLocked()
	if c.state == Processing {
		c.generation++
	}
	c.source = copied
	c.output = nil
	c.report = nil
	if c.engine.Ready() {
		c.setLocked(SourceLoaded, MsgSourceLoaded)
	}
	st := c.statusLocked()
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"width":    copied.Width,
		"height":   copied.Height,
		"channels": copied.Channels,
	}).Info("Source loaded")
	c.notify(st)
	return nil
}

// Reset discards source and output and returns to EngineReady, or to
// AwaitingEngine if the engine never signalled. A reset during Processing
// makes the running invoke discard its result.
func (c *Controller) Reset() Status {
	c.mu.Lock()
	c.syncEngineLocked()
	if c.state == Processing {
		c.generation++
	}
	c.source = nil
	c.output = nil
	c.report = nil
	if c.engine.Ready() {
		c.setLocked(EngineReady, MsgReady)
	} else {
		c.setLocked(AwaitingEngine, MsgWaitingForEngine)
	}
	st := c.statusLocked()
	c.mu.Unlock()

	c.log.Debug("Controller reset")
	c.notify(st)
	return st
}

// Invoke runs the pipeline once over the current source.
//
// It works in two phases. First it announces Processing and notifies the
// status listener, then it waits the configured yield delay so the
// announcement can be observed, then it runs the pipeline to completion.
// Cancelling ctx during the yield aborts the invoke and restores the
// previous status; once the run has started it is not interruptible.
//
// Only one run is in flight at a time. A run superseded by Load or Reset
// still counts until it returns, so Invoke keeps answering ErrBusy even
// though the state has already moved on.
//
// Unmet preconditions leave the state unchanged, update the status text and
// return ErrEngineNotReady, ErrNoSource or ErrBusy. A pipeline failure moves
// the controller to Error and is returned as a *StageFault.
func (c *Controller) Invoke(ctx context.Context) (*Report, error) {
	c.mu.Lock()
	c.syncEngineLocked()
	var precondition error
	switch {
	case c.state == Processing || c.running:
		precondition = ErrBusy
		c.message = MsgBusy
	case !c.engine.Ready():
		precondition = ErrEngineNotReady
		c.message = MsgEngineNotReady
	case c.source == nil:
		precondition = ErrNoSource
		c.message = MsgNoSource
	}
	if precondition != nil {
		st := c.statusLocked()
		c.mu.Unlock()
		c.notify(st)
		c.log.WithField("state", st.State).Debug(st.Message)
		return nil, precondition
	}

	previous := c.statusLocked()
	c.setLocked(Processing, MsgProcessing)
	c.running = true
	gen := c.generation
	src := c.source
	announced := c.statusLocked()
	c.mu.Unlock()
	c.notify(announced)

	if err := c.yield(ctx); err != nil {
		c.mu.Lock()
		c.running = false
		reverted := false
		if gen == c.generation && c.state == Processing {
			c.setLocked(previous.State, previous.Message)
			reverted = true
		} else {
			reverted = c.clearBusyLocked()
		}
		st := c.statusLocked()
		c.mu.Unlock()
		if reverted {
			c.notify(st)
		}
		return nil, err
	}

	c.mu.Lock()
	if gen != c.generation {
		c.running = false
		cleared := c.clearBusyLocked()
		st := c.statusLocked()
		c.mu.Unlock()
		if cleared {
			c.notify(st)
		}
		c.log.Info("Skipping run superseded during yield")
		return nil, ErrSuperseded
	}
	c.mu.Unlock()

	out, report, runErr := c.pipeline.Run(src)

	c.mu.Lock()
	c.running = false
	if gen != c.generation {
		cleared := c.clearBusyLocked()
		st := c.statusLocked()
		c.mu.Unlock()
		if cleared {
			c.notify(st)
		}
		c.log.Info("Discarding result of superseded run")
		return report, ErrSuperseded
	}
	c.report = report
	if runErr != nil {
		c.output = nil
		c.setLocked(Error, MsgErrorPrefix+runErr.Error())
	} else {
		c.output = out
		c.setLocked(Done, MsgDone)
	}
	st := c.statusLocked()
	c.mu.Unlock()

	c.notify(st)
	return report, runErr
}

// yield waits the configured delay, returning early with ctx's error.
func (c *Controller) yield(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Output returns a copy of the last finished scan.
func (c *Controller) Output() (*raster.Buffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Done || c.output == nil {
		return nil, ErrNoOutput
	}
	return c.output.Clone(), nil
}

// Report returns a copy of the diagnostics of the last finished run, or
// nil when none is available.
func (c *Controller) Report() *Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.report == nil {
		return nil
	}
	r := *c.report
	if r.Corners != nil {
		corners := *r.Corners
		r.Corners = &corners
	}
	return &r
}

// Snapshot is a point-in-time view of the controller for hosts.
type Snapshot struct {
	Status       Status `json:"status"`
	EngineReady  bool   `json:"engine_ready"`
	SourceWidth  int    `json:"source_width,omitempty"`
	SourceHeight int    `json:"source_height,omitempty"`
	OutputWidth  int    `json:"output_width,omitempty"`
	OutputHeight int    `json:"output_height,omitempty"`
}

// Snapshot returns the current status and image dimensions.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	changed := c.syncEngineLocked()
	snap := Snapshot{
		Status:      c.statusLocked(),
		EngineReady: c.engine.Ready(),
	}
	if c.source != nil {
		snap.SourceWidth, snap.SourceHeight = c.source.Width, c.source.Height
	}
	if c.state == Done && c.output != nil {
		snap.OutputWidth, snap.OutputHeight = c.output.Width, c.output.Height
	}
	c.mu.Unlock()

	if changed {
		c.notify(snap.Status)
	}
	return snap
}

// syncEngineLocked promotes AwaitingEngine once the engine is ready. It
// reports whether the state changed.
func (c *Controller) syncEngineLocked() bool {
	if c.state != AwaitingEngine || !c.engine.Ready() {
		return false
	}
	if c.source != nil {
		c.setLocked(SourceLoaded, MsgSourceLoaded)
	} else {
		c.setLocked(EngineReady, MsgEngineReady)
	}
	return true
}

// clearBusyLocked replaces a busy rejection left on a non-processing state
// by a superseded run with that state's usual text.
func (c *Controller) clearBusyLocked() bool {
	if c.message != MsgBusy || c.state == Processing {
		return false
	}
	switch c.state {
	case SourceLoaded:
		c.message = MsgSourceLoaded
	case EngineReady:
		c.message = MsgReady
	case AwaitingEngine:
		c.message = MsgWaitingForEngine
	default:
		return false
	}
	return true
}

func (c *Controller) setLocked(state State, message string) {
	if state != c.state {
		c.log.WithFields(logrus.Fields{
			"from": c.state,
			"to":   state,
		}).Debug("State change")
	}
	c.state = state
	c.message = message
}

func (c *Controller) statusLocked() Status {
	return Status{State: c.state, Message: c.message}
}

func (c *Controller) notify(st Status) {
	if c.onStatus != nil {
		c.onStatus(st)
	}
}
