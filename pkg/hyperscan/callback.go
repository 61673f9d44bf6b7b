//go:build cgo

package hyperscan

/*
#include <stdint.h>
#include <stddef.h>
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"
)

// trampoline is the per-scratch record the native context points at.
type trampoline struct {
	handler  MatchHandler
	stopped  bool
	panicked bool
	panicVal any
}

func (t *trampoline) dispatch(m Match) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			t.panicked = true
			t.panicVal = r
			d = Stop
		}
	}()
	if t.handler == nil {
		return Continue
	}
	d = t.handler(m)
	if d == Stop {
		t.stopped = true
	}
	return d
}

//export hsgoMatchEvent
func hsgoMatchEvent(id C.uint, from, to C.ulonglong, flags C.uint, ctx C.uintptr_t) C.int {
	t := cgo.Handle(ctx).Value().(*trampoline)
	return C.int(t.dispatch(Match{ID: uint(id), From: uint64(from), To: uint64(to), Flags: uint(flags)}))
}

//export hsgoAllocEvent
func hsgoAllocEvent(kind C.int, size C.size_t) unsafe.Pointer {
	a := allocators[kind].Load()
	if a == nil {
		return nil
	}
	p := (*a).Alloc(uintptr(size))
	return p
}

//export hsgoFreeEvent
func hsgoFreeEvent(kind C.int, p unsafe.Pointer) {
	if p == nil {
		return
	}
	if a := allocators[kind].Load(); a != nil {
		(*a).Free(p)
	}
}
