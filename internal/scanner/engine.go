package scanner

import "sync"

// Readiness reports whether the image primitives are available. The
// controller refuses to run the pipeline until Ready returns true.
type Readiness interface {
	Ready() bool
}

// Engine is a one-shot readiness signal.
type Engine struct {
	once sync.Once
	done chan struct{}
}

// NewEngine returns an engine that has not signalled yet.
func NewEngine() *Engine {
	return &Engine{done: make(chan struct{})}
}

// Signal marks the engine ready. Calls after the first have no effect.
func (e *Engine) Signal() {
	e.once.Do(func() { close(e.done) })
}

// Ready reports whether Signal has been called.
func (e *Engine) Ready() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Done is closed once the engine is ready.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}
