//go:build cgo && chimera

package chimera

/*
#cgo pkg-config: libch libhs libpcre

#include <stdint.h>
#include <stdlib.h>
#include <ch.h>

extern int chgoMatchEvent(unsigned int id, unsigned long long from, unsigned long long to,
                          unsigned int flags, unsigned int size, ch_capture_t *captured, uintptr_t ctx);
extern int chgoErrorEvent(int type, unsigned int id, uintptr_t ctx);

static ch_callback_t chgo_match_bridge(unsigned int id, unsigned long long from, unsigned long long to,
                                       unsigned int flags, unsigned int size,
                                       const ch_capture_t *captured, void *ctx) {
	return chgoMatchEvent(id, from, to, flags, size, (ch_capture_t *)captured, (uintptr_t)ctx);
}

static ch_callback_t chgo_error_bridge(ch_error_event_t type, unsigned int id, void *info, void *ctx) {
	return chgoErrorEvent((int)type, id, (uintptr_t)ctx);
}

static ch_error_t chgo_scan(const ch_database_t *db, const char *data, unsigned int length,
                            ch_scratch_t *scratch, uintptr_t ctx) {
	return ch_scan(db, data, length, 0, scratch, chgo_match_bridge, chgo_error_bridge, (void *)ctx);
}
*/
import "C"

import (
	"math"
	"runtime"
	"runtime/cgo"
	"unsafe"
)

var emptyInput [1]byte

func bytesPtr(b []byte) *C.char {
	if len(b) == 0 {
		return (*C.char)(unsafe.Pointer(&emptyInput[0]))
	}
	return (*C.char)(unsafe.Pointer(&b[0]))
}

func rawScan(db *C.ch_database_t, data []byte, s *C.ch_scratch_t, ctx cgo.Handle) C.ch_error_t {
	code := C.chgo_scan(db, bytesPtr(data), C.uint(len(data)), s, C.uintptr_t(ctx))
	runtime.KeepAlive(data)
	return code
}

func tooLarge(data []byte) bool { return uint64(len(data)) > math.MaxUint32 }

// Version returns the chimera engine version string.
func Version() string {
	return C.GoString(C.ch_version())
}
