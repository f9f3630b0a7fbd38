package scanner

import "fmt"

// State is a step of the controller state machine.
type State int

const (
	AwaitingEngine State = iota
	EngineReady
	SourceLoaded
	Processing
	Done
	Error
)

var stateNames = [...]string{
	AwaitingEngine: "awaiting_engine",
	EngineReady:    "engine_ready",
	SourceLoaded:   "source_loaded",
	Processing:     "processing",
	Done:           "done",
	Error:          "error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Invocable reports whether Invoke may start a run from this state.
func (s State) Invocable() bool {
	return s == SourceLoaded || s == Done || s == Error
}

// Status texts shown to the user.
const (
	MsgWaitingForEngine = "Waiting for engine..."
	MsgEngineReady      = "Engine ready"
	MsgSourceLoaded     = "Source loaded. Ready to process."
	MsgProcessing       = "Processing..."
	MsgDone             = "Done: processed image ready."
	MsgErrorPrefix      = "Error during processing: "
	MsgEngineNotReady   = "Engine not ready"
	MsgNoSource         = "No source image"
	MsgBusy             = "Busy: processing already in progress"
	MsgReady            = "Ready"
)

// Status is the controller state together with its human-readable text.
type Status struct {
	State   State  `json:"state"`
	Message string `json:"message"`
}
