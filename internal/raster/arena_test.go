package raster

import (
	"errors"
	"testing"
)

func TestArena_AllocRelease(t *testing.T) {
	a := NewArena(NewPool())

	h, buf, err := a.Alloc(4, 4, 1)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if a.Get(h) != buf {
		t.Fatal("Get should return the allocated buffer")
	}

	if err := a.Release(h); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if a.Get(h) != nil {
		t.Error("released handle should not resolve")
	}
	if buf.Samples != nil {
		t.Error("released buffer should drop its samples")
	}

	err = a.Release(h)
	if !errors.Is(err, ErrDoubleRelease) {
		t.Errorf("second release: expected ErrDoubleRelease, got %v", err)
	}
}

func TestArena_AliasNotReleased(t *testing.T) {
	a := NewArena(nil)
	h, _, _ := a.Alloc(2, 2, 4)

	if err := a.ReleaseInput(h, Alias(h)); err != nil {
		t.Fatalf("ReleaseInput with alias failed: %v", err)
	}
	if a.Get(h) == nil {
		t.Fatal("aliased input must stay live")
	}

	out, _, _ := a.Alloc(2, 2, 4)
	if err := a.ReleaseInput(h, Owned(out)); err != nil {
		t.Fatalf("ReleaseInput with owned output failed: %v", err)
	}
	if a.Get(h) != nil {
		t.Error("input should be released once an owned output exists")
	}
}

func TestArena_DetachSurvivesReleaseAll(t *testing.T) {
	a := NewArena(NewPool())
	h1, _, _ := a.Alloc(3, 3, 4)
	h2, _, _ := a.Alloc(3, 3, 1)
	_, _, _ = a.Alloc(1, 1, 1)

	kept, err := a.Detach(h1)
	if err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if err := a.Release(h2); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if n := a.ReleaseAll(); n != 1 {
		t.Errorf("ReleaseAll: freed %d, want 1", n)
	}
	if n := a.ReleaseAll(); n != 0 {
		t.Errorf("second ReleaseAll: freed %d, want 0", n)
	}
	if len(kept.Samples) != 36 {
		t.Error("detached buffer must keep its samples")
	}

	s := a.Stats()
	if s.Allocated != 3 || s.Released != 2 || s.Detached != 1 || s.Live != 0 {
		t.Errorf("stats: got %+v", s)
	}
}

func TestArena_Errors(t *testing.T) {
	a := NewArena(nil)
	if err := a.Release(NoHandle); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("NoHandle: expected ErrUnknownHandle, got %v", err)
	}
	if _, _, err := a.Alloc(0, 1, 1); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("bad shape: expected ErrInvalidBuffer, got %v", err)
	}
	if _, err := a.Adopt(&Buffer{Width: 2, Height: 2, Channels: 4}); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("Adopt invalid: expected ErrInvalidBuffer, got %v", err)
	}
}

func TestPool_ReturnsZeroed(t *testing.T) {
	p := NewPool()
	s := p.Get(16)
	for i := range s {
		s[i] = 0xFF
	}
	p.Put(s)

	again := p.Get(16)
	for i, v := range again {
		if v != 0 {
			t.Fatalf("byte %d not zeroed: %d", i, v)
		}
	}
}
