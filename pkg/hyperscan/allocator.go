//go:build cgo

package hyperscan

/*
#include <stdlib.h>
#include <hs.h>
*/
import "C"

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Allocator supplies memory for the engine's internal structures. Alloc must
// return C heap memory aligned to at least 8 bytes, never Go memory.
type Allocator interface {
	Alloc(size uintptr) unsafe.Pointer
	Free(p unsafe.Pointer)
}

type allocKind int

const (
	dbAlloc allocKind = iota
	miscAlloc
	scratchAlloc
	streamAlloc
)

var allocKindNames = [...]string{"database", "misc", "scratch", "stream"}

var (
	allocators  [4]atomic.Pointer[Allocator]
	allocMu     sync.Mutex
	liveObjects atomic.Int64
)

func setAllocator(a Allocator, kinds ...allocKind) error {
	allocMu.Lock()
	defer allocMu.Unlock()

	if n := liveObjects.Load(); n > 0 {
		return fmt.Errorf("%w (%d alive)", ErrAllocatorInUse, n)
	}
	for _, k := range kinds {
		if a == nil {
			allocators[k].Store(nil)
		} else {
			allocators[k].Store(&a)
		}
		if code := rawSetAllocator(k, a != nil); code != C.HS_SUCCESS {
			return fmt.Errorf("setting %s allocator: %w", allocKindNames[k], HsError(code))
		}
		log().Debug("allocator changed", "kind", allocKindNames[k], "custom", a != nil)
	}
	return nil
}

// SetAllocator installs a for every engine allocation. A nil allocator
// restores the engine's default malloc/free. It fails with ErrAllocatorInUse
// while any Database, Scratch or Stream is alive.
func SetAllocator(a Allocator) error {
	return setAllocator(a, dbAlloc, miscAlloc, scratchAlloc, streamAlloc)
}

// SetDatabaseAllocator installs a for compiled and deserialized databases.
func SetDatabaseAllocator(a Allocator) error { return setAllocator(a, dbAlloc) }

// SetMiscAllocator installs a for short-lived buffers such as serialized
// databases, info strings and compile errors.
func SetMiscAllocator(a Allocator) error { return setAllocator(a, miscAlloc) }

// SetScratchAllocator installs a for scratch regions.
func SetScratchAllocator(a Allocator) error { return setAllocator(a, scratchAlloc) }

// SetStreamAllocator installs a for stream state.
func SetStreamAllocator(a Allocator) error { return setAllocator(a, streamAlloc) }

// miscFree releases memory the engine handed back through its misc allocator.
func miscFree(p unsafe.Pointer) {
	if p == nil {
		return
	}
	if a := allocators[miscAlloc].Load(); a != nil {
		(*a).Free(p)
		return
	}
	C.free(p)
}

// CountingAllocator is a C heap allocator that tracks outstanding allocations.
type CountingAllocator struct {
	mu     sync.Mutex
	sizes  map[unsafe.Pointer]uintptr
	allocs int64
	frees  int64
	bytes  uintptr
}

// NewCountingAllocator returns an empty CountingAllocator.
func NewCountingAllocator() *CountingAllocator {
	return &CountingAllocator{sizes: make(map[unsafe.Pointer]uintptr)}
}

func (c *CountingAllocator) Alloc(size uintptr) unsafe.Pointer {
	p := C.malloc(C.size_t(size))
	if p == nil {
		return nil
	}
	c.mu.Lock()
	c.sizes[p] = size
	c.allocs++
	c.bytes += size
	c.mu.Unlock()
	return p
}

func (c *CountingAllocator) Free(p unsafe.Pointer) {
	c.mu.Lock()
	if size, ok := c.sizes[p]; ok {
		delete(c.sizes, p)
		c.frees++
		c.bytes -= size
	}
	c.mu.Unlock()
	C.free(p)
}

// AllocatorStats is a snapshot of a CountingAllocator.
type AllocatorStats struct {
	Allocs    int64
	Frees     int64
	Live      int
	LiveBytes uintptr
}

// Stats returns the current counters.
func (c *CountingAllocator) Stats() AllocatorStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return AllocatorStats{Allocs: c.allocs, Frees: c.frees, Live: len(c.sizes), LiveBytes: c.bytes}
}
