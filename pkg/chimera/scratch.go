//go:build cgo && chimera

package chimera

/*
#include <ch.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"runtime/cgo"
	"sync"
	"sync/atomic"
)

// Scratch is per-scan working memory. Like the main engine's scratch, it
// serves one scan at a time; concurrent use fails with ErrScratchInUse.
type Scratch struct {
	res     *scratchRes
	mu      sync.RWMutex
	inUse   atomic.Bool
	closed  atomic.Bool
	cleanup runtime.Cleanup
}

type scratchRes struct {
	ptr    *C.ch_scratch_t
	handle cgo.Handle
	tramp  trampoline
}

func freeScratch(res *scratchRes) {
	C.ch_free_scratch(res.ptr)
	res.handle.Delete()
}

func newScratch(ptr *C.ch_scratch_t) *Scratch {
	res := &scratchRes{ptr: ptr}
	res.handle = cgo.NewHandle(&res.tramp)
	s := &Scratch{res: res}
	s.cleanup = runtime.AddCleanup(s, freeScratch, res)
	return s
}

// NewScratch allocates scratch space for db.
func NewScratch(db *Database) (*Scratch, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.ptr == nil {
		return nil, ErrClosed
	}
	var ptr *C.ch_scratch_t
	if code := C.ch_alloc_scratch(db.ptr, &ptr); code != C.CH_SUCCESS {
		return nil, fmt.Errorf("allocating scratch: %w", ChError(code))
	}
	return newScratch(ptr), nil
}

// Grow enlarges the scratch so it can also serve db. If the engine runs out
// of memory the old region is released as well and the scratch is closed.
func (s *Scratch) Grow(db *Database) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrClosed
	}
	if !s.inUse.CompareAndSwap(false, true) {
		return ErrScratchInUse
	}
	defer s.inUse.Store(false)

	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.ptr == nil {
		return ErrClosed
	}
	ptr := s.res.ptr
	code := C.ch_alloc_scratch(db.ptr, &ptr)
	s.res.ptr = ptr
	if ptr == nil {
		// a failed reallocation frees the old region
		s.closed.Store(true)
		s.cleanup.Stop()
		s.res.handle.Delete()
		return fmt.Errorf("growing scratch: %w", ChError(code))
	}
	if code != C.CH_SUCCESS {
		return fmt.Errorf("growing scratch: %w", ChError(code))
	}
	return nil
}

// Clone allocates an independent copy of the scratch.
func (s *Scratch) Clone() (*Scratch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var ptr *C.ch_scratch_t
	if code := C.ch_clone_scratch(s.res.ptr, &ptr); code != C.CH_SUCCESS {
		return nil, fmt.Errorf("cloning scratch: %w", ChError(code))
	}
	return newScratch(ptr), nil
}

// Size returns the scratch size in bytes.
func (s *Scratch) Size() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return 0, ErrClosed
	}
	var size C.size_t
	if code := C.ch_scratch_size(s.res.ptr, &size); code != C.CH_SUCCESS {
		return 0, ChError(code)
	}
	return int(size), nil
}

// Close frees the scratch.
func (s *Scratch) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inUse.CompareAndSwap(false, true) {
		return ErrScratchInUse
	}
	defer s.inUse.Store(false)
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	s.cleanup.Stop()
	freeScratch(s.res)
	return nil
}

func (s *Scratch) begin(onMatch MatchHandler, onError ErrorHandler) (*scratchRes, error) {
	if s == nil {
		return nil, fmt.Errorf("nil scratch: %w", ErrInvalid)
	}
	if !s.inUse.CompareAndSwap(false, true) {
		return nil, ErrScratchInUse
	}
	if s.closed.Load() {
		s.inUse.Store(false)
		return nil, ErrClosed
	}
	t := &s.res.tramp
	t.onMatch, t.onError, t.events = onMatch, onError, t.events[:0]
	return s.res, nil
}

func (s *Scratch) end() {
	t := &s.res.tramp
	panicked, val := t.panicked, t.panicVal
	t.onMatch, t.onError, t.panicked, t.panicVal = nil, nil, false, nil
	s.inUse.Store(false)
	if panicked {
		panic(val)
	}
}
