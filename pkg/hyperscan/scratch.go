//go:build cgo

package hyperscan

/*
#include <hs.h>
*/
import "C"

import (
	"fmt"
	"maps"
	"runtime"
	"runtime/cgo"
	"sync"
	"sync/atomic"
)

// Scratch is the per-scan workspace. One scan at a time may use a Scratch;
// a second concurrent or nested scan fails with ErrScratchInUse rather than
// waiting. Give each goroutine its own Scratch, usually via Clone.
type Scratch struct {
	// mu guards res.ptr and sized against Grow and Close. Scans do not take it.
	mu      sync.RWMutex
	inUse   atomic.Bool
	closed  atomic.Bool
	res     *scratchRes
	sized   map[uint64]struct{}
	cleanup runtime.Cleanup
}

type scratchRes struct {
	ptr    *C.hs_scratch_t
	handle cgo.Handle
	tramp  trampoline
}

func freeScratch(res *scratchRes) {
	C.hs_free_scratch(res.ptr)
	res.ptr = nil
	res.handle.Delete()
	liveObjects.Add(-1)
}

func newScratch(ptr *C.hs_scratch_t, sized map[uint64]struct{}) *Scratch {
	res := &scratchRes{ptr: ptr}
	res.handle = cgo.NewHandle(&res.tramp)
	liveObjects.Add(1)
	s := &Scratch{res: res, sized: sized}
	s.cleanup = runtime.AddCleanup(s, freeScratch, res)
	return s
}

// NewScratch allocates a scratch large enough for db.
func NewScratch(db Database) (*Scratch, error) {
	d := db.base()
	p, err := d.ptr()
	if err != nil {
		return nil, err
	}
	var ptr *C.hs_scratch_t
	code := C.hs_alloc_scratch(p, &ptr)
	runtime.KeepAlive(d)
	if code != C.HS_SUCCESS {
		return nil, fmt.Errorf("allocating scratch: %w", HsError(code))
	}
	return newScratch(ptr, map[uint64]struct{}{d.h.id: {}}), nil
}

// Grow enlarges the scratch so it can also be used with db. It is a no-op
// when the scratch is already large enough. If the engine cannot allocate
// the larger region the old one is gone too, and the scratch is closed.
func (s *Scratch) Grow(db Database) error {
	d := db.base()
	p, err := d.ptr()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inUse.CompareAndSwap(false, true) {
		return ErrScratchInUse
	}
	defer s.inUse.Store(false)
	if s.closed.Load() {
		return ErrClosed
	}

	ptr := s.res.ptr
	code := C.hs_alloc_scratch(p, &ptr)
	runtime.KeepAlive(d)
	s.res.ptr = ptr
	if ptr == nil {
		// a failed reallocation frees the old region
		s.closed.Store(true)
		s.cleanup.Stop()
		s.res.handle.Delete()
		liveObjects.Add(-1)
		return fmt.Errorf("growing scratch: %w", HsError(code))
	}
	if code != C.HS_SUCCESS {
		return fmt.Errorf("growing scratch: %w", HsError(code))
	}
	s.sized[d.h.id] = struct{}{}
	log().Debug("scratch grown", "database", d.h.id)
	return nil
}

// Clone allocates an independent scratch of the same size. It may run
// concurrently with scans on s.
func (s *Scratch) Clone() (*Scratch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var ptr *C.hs_scratch_t
	code := C.hs_clone_scratch(s.res.ptr, &ptr)
	if code != C.HS_SUCCESS {
		return nil, fmt.Errorf("cloning scratch: %w", HsError(code))
	}
	return newScratch(ptr, maps.Clone(s.sized)), nil
}

// Size returns the scratch size in bytes.
func (s *Scratch) Size() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return 0, ErrClosed
	}
	var size C.size_t
	if code := C.hs_scratch_size(s.res.ptr, &size); code != C.HS_SUCCESS {
		return 0, HsError(code)
	}
	return int(size), nil
}

// Close frees the scratch. It fails with ErrScratchInUse during a scan.
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

// begin claims the scratch for one native call and installs h.
func (s *Scratch) begin(h MatchHandler) (*scratchRes, cgo.Handle, error) {
	if s == nil {
		return nil, 0, fmt.Errorf("nil scratch: %w", ErrInvalid)
	}
	if !s.inUse.CompareAndSwap(false, true) {
		return nil, 0, ErrScratchInUse
	}
	if s.closed.Load() {
		s.inUse.Store(false)
		return nil, 0, ErrClosed
	}
	if h == nil {
		return s.res, 0, nil
	}
	s.res.tramp.handler = h
	return s.res, s.res.handle, nil
}

// end releases the scratch and re-raises a panic from the handler.
func (s *Scratch) end() {
	t := &s.res.tramp
	panicked, val := t.panicked, t.panicVal
	t.handler, t.stopped, t.panicked, t.panicVal = nil, false, false, nil
	s.inUse.Store(false)
	if panicked {
		panic(val)
	}
}

// scanError translates a native scan status for a scan of database h.
func (s *Scratch) scanError(code C.hs_error_t, h *dbHandle) error {
	switch e := HsError(code); e {
	case ErrSuccess:
		return nil
	case ErrInvalid:
		if _, ok := s.sized[h.id]; !ok {
			return ErrScratchTooSmall
		}
		return e
	default:
		return e
	}
}
