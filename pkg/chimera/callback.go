//go:build cgo && chimera

package chimera

/*
#include <stdint.h>
#include <ch.h>
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"
)

// trampoline carries the handlers of the scan in progress on one scratch.
type trampoline struct {
	onMatch  MatchHandler
	onError  ErrorHandler
	events   []ErrorEvent
	panicked bool
	panicVal any
}

func (t *trampoline) match(m Match) (d Decision) {
	if t.onMatch == nil {
		return Continue
	}
	defer func() {
		if r := recover(); r != nil {
			t.panicked, t.panicVal = true, r
			d = Terminate
		}
	}()
	return t.onMatch(m)
}

func (t *trampoline) limit(ev ErrorEvent) (d Decision) {
	if t.onError == nil {
		t.events = append(t.events, ev)
		return SkipPattern
	}
	defer func() {
		if r := recover(); r != nil {
			t.panicked, t.panicVal = true, r
			d = Terminate
		}
	}()
	return t.onError(ev)
}

//export chgoMatchEvent
func chgoMatchEvent(id C.uint, from, to C.ulonglong, flags C.uint, size C.uint, captured *C.ch_capture_t, ctx C.uintptr_t) C.int {
	t := cgo.Handle(ctx).Value().(*trampoline)
	m := Match{ID: uint(id), From: uint64(from), To: uint64(to), Flags: uint(flags)}
	if size > 0 && captured != nil {
		raw := unsafe.Slice(captured, int(size))
		m.Captures = make([]Capture, len(raw))
		for i, c := range raw {
			m.Captures[i] = Capture{Active: c.flags&C.CH_CAPTURE_FLAG_ACTIVE != 0, From: uint64(c.from), To: uint64(c.to)}
		}
	}
	return C.int(t.match(m))
}

//export chgoErrorEvent
func chgoErrorEvent(typ C.int, id C.uint, ctx C.uintptr_t) C.int {
	t := cgo.Handle(ctx).Value().(*trampoline)
	return C.int(t.limit(ErrorEvent{Type: ErrorType(typ), ID: uint(id)}))
}
