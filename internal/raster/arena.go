package raster

import (
	"errors"
	"fmt"
)

// ErrDoubleRelease is returned when a handle is released or detached twice.
var ErrDoubleRelease = errors.New("raster buffer released twice")

// ErrUnknownHandle is returned for handles the arena never issued.
var ErrUnknownHandle = errors.New("unknown raster handle")

// Handle identifies a buffer owned by an Arena.
type Handle int

// NoHandle is the zero value for "no buffer".
const NoHandle Handle = -1

// Result is what a pipeline stage hands to the next one: either a buffer the
// stage allocated (Owned) or the very handle it received (Aliased).
type Result struct {
	Handle  Handle
	Aliased bool
}

// Owned tags a freshly allocated buffer.
func Owned(h Handle) Result { return Result{Handle: h} }

// Alias tags a pass-through of the stage input.
func Alias(h Handle) Result { return Result{Handle: h, Aliased: true} }

type slotState int

const (
	slotLive slotState = iota
	slotReleased
	slotDetached
)

type slot struct {
	buf   *Buffer
	state slotState
}

// Stats summarises an arena's bookkeeping.
type Stats struct {
	Allocated int `json:"allocated"`
	Released  int `json:"released"`
	Detached  int `json:"detached"`
	Live      int `json:"live"`
}

// Arena owns every buffer of one pipeline run.
//
// An Arena is not safe for concurrent use; a run owns its arena exclusively.
type Arena struct {
	pool  *Pool
	slots []slot
	stats Stats
}

// NewArena creates an arena drawing memory from pool. A nil pool allocates
// fresh slices and lets released ones go to the garbage collector.
func NewArena(pool *Pool) *Arena {
	return &Arena{pool: pool}
}

// Alloc creates a zeroed buffer owned by the arena.
func (a *Arena) Alloc(width, height, channels int) (Handle, *Buffer, error) {
	if err := checkShape(width, height, channels); err != nil {
		return NoHandle, nil, err
	}
	n := width * height * channels
	var samples []byte
	if a.pool != nil {
		samples = a.pool.Get(n)
	} else {
		samples = make([]byte, n)
	}
	buf := &Buffer{Width: width, Height: height, Channels: channels, Samples: samples}
	return a.track(buf), buf, nil
}

// Adopt takes ownership of an existing buffer.
func (a *Arena) Adopt(buf *Buffer) (Handle, error) {
	if err := buf.Validate(); err != nil {
		return NoHandle, err
	}
	return a.track(buf), nil
}

func (a *Arena) track(buf *Buffer) Handle {
	a.slots = append(a.slots, slot{buf: buf})
	a.stats.Allocated++
	a.stats.Live++
	return Handle(len(a.slots) - 1)
}

// Get returns the live buffer behind h, or nil.
func (a *Arena) Get(h Handle) *Buffer {
	if h < 0 || int(h) >= len(a.slots) || a.slots[h].state != slotLive {
		return nil
	}
	return a.slots[h].buf
}

// Release frees the buffer behind h.
func (a *Arena) Release(h Handle) error {
	s, err := a.liveSlot(h)
	if err != nil {
		return err
	}
	if a.pool != nil {
		a.pool.Put(s.buf.Samples)
	}
	s.buf.Samples = nil
	s.buf = nil
	s.state = slotReleased
	a.stats.Released++
	a.stats.Live--
	return nil
}

// ReleaseInput frees a stage input once the stage has produced out, unless
// out is an alias of that input.
func (a *Arena) ReleaseInput(in Handle, out Result) error {
	if out.Aliased && out.Handle == in {
		return nil
	}
	return a.Release(in)
}

// Detach removes the buffer behind h from the arena and returns it. The
// caller becomes its sole owner and ReleaseAll will not touch it.
func (a *Arena) Detach(h Handle) (*Buffer, error) {
	s, err := a.liveSlot(h)
	if err != nil {
		return nil, err
	}
	buf := s.buf
	s.buf = nil
	s.state = slotDetached
	a.stats.Detached++
	a.stats.Live--
	return buf, nil
}

func (a *Arena) liveSlot(h Handle) (*slot, error) {
	if h < 0 || int(h) >= len(a.slots) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	s := &a.slots[h]
	if s.state != slotLive {
		return nil, fmt.Errorf("%w: handle %d", ErrDoubleRelease, h)
	}
	return s, nil
}

// ReleaseAll frees every buffer that is still live and returns how many were
// freed. It is safe to call more than once.
func (a *Arena) ReleaseAll() int {
	n := 0
	for i := range a.slots {
		if a.slots[i].state == slotLive {
			_ = a.Release(Handle(i))
			n++
		}
	}
	return n
}

// Stats returns the arena's counters.
func (a *Arena) Stats() Stats {
	return a.stats
}
