package scanner

import (
	"errors"
	"fmt"
)

// Precondition errors returned by Controller.Invoke. The controller state is
// left unchanged when one of them is returned.
var (
	ErrEngineNotReady = errors.New("engine not ready")
	ErrNoSource       = errors.New("no source image")
	ErrBusy           = errors.New("busy: processing already in progress")
)

// ErrSuperseded is returned by Invoke when a Load or Reset arrived while the
// run was in progress. The run's output is discarded.
var ErrSuperseded = errors.New("run superseded by a newer source")

// ErrNoOutput is returned by Controller.Output outside the Done state.
var ErrNoOutput = errors.New("no processed image")

// ErrGeometryDegenerate marks a quad or rotation that cannot be warped. The
// pipeline recovers from it by aliasing the stage input; it is only ever
// visible in a Report.
var ErrGeometryDegenerate = errors.New("degenerate geometry")

// Stage names used in StageFault and log fields.
const (
	StageLoad    = "load"
	StageExtract = "extract"
	StageDetect  = "detect"
	StageRectify = "rectify"
	StageDeskew  = "deskew"
	StageEnhance = "enhance"
	StageOutput  = "output"
)

// StageFault is an unexpected failure inside one pipeline stage, including a
// recovered panic.
type StageFault struct {
	Stage string
	Err   error
}

func (f *StageFault) Error() string {
	return fmt.Sprintf("%s stage: %v", f.Stage, f.Err)
}

func (f *StageFault) Unwrap() error {
	return f.Err
}
