//go:build cgo

package hyperscan

/*
#cgo !hs_nopkgconfig pkg-config: libhs
#cgo hs_nopkgconfig LDFLAGS: -lhs -lstdc++ -lm

#include <stdint.h>
#include <stdlib.h>
#include <hs.h>

extern int hsgoMatchEvent(unsigned int id, unsigned long long from, unsigned long long to, unsigned int flags, uintptr_t ctx);
extern void *hsgoAllocEvent(int kind, size_t size);
extern void hsgoFreeEvent(int kind, void *ptr);

int hsgo_match_bridge(unsigned int id, unsigned long long from, unsigned long long to, unsigned int flags, void *ctx) {
	return hsgoMatchEvent(id, from, to, flags, (uintptr_t)ctx);
}

static match_event_handler hsgo_handler(uintptr_t ctx) {
	return ctx ? hsgo_match_bridge : NULL;
}

static hs_error_t hsgo_scan(const hs_database_t *db, const char *data, unsigned int length,
                            hs_scratch_t *scratch, uintptr_t ctx) {
	return hs_scan(db, data, length, 0, scratch, hsgo_handler(ctx), (void *)ctx);
}

static hs_error_t hsgo_scan_vector(const hs_database_t *db, const char *const *data,
                                   const unsigned int *length, unsigned int count,
                                   hs_scratch_t *scratch, uintptr_t ctx) {
	return hs_scan_vector(db, data, length, count, 0, scratch, hsgo_handler(ctx), (void *)ctx);
}

static hs_error_t hsgo_scan_stream(hs_stream_t *stream, const char *data, unsigned int length,
                                   hs_scratch_t *scratch, uintptr_t ctx) {
	return hs_scan_stream(stream, data, length, 0, scratch, hsgo_handler(ctx), (void *)ctx);
}

static hs_error_t hsgo_close_stream(hs_stream_t *stream, hs_scratch_t *scratch, uintptr_t ctx) {
	return hs_close_stream(stream, scratch, hsgo_handler(ctx), (void *)ctx);
}

static hs_error_t hsgo_reset_stream(hs_stream_t *stream, hs_scratch_t *scratch, uintptr_t ctx) {
	return hs_reset_stream(stream, 0, scratch, hsgo_handler(ctx), (void *)ctx);
}

static hs_error_t hsgo_reset_and_copy_stream(hs_stream_t *to, const hs_stream_t *from,
                                             hs_scratch_t *scratch, uintptr_t ctx) {
	return hs_reset_and_copy_stream(to, from, scratch, hsgo_handler(ctx), (void *)ctx);
}

static void *hsgo_db_alloc(size_t n)      { return hsgoAllocEvent(0, n); }
static void  hsgo_db_free(void *p)        { hsgoFreeEvent(0, p); }
static void *hsgo_misc_alloc(size_t n)    { return hsgoAllocEvent(1, n); }
static void  hsgo_misc_free(void *p)      { hsgoFreeEvent(1, p); }
static void *hsgo_scratch_alloc(size_t n) { return hsgoAllocEvent(2, n); }
static void  hsgo_scratch_free(void *p)   { hsgoFreeEvent(2, p); }
static void *hsgo_stream_alloc(size_t n)  { return hsgoAllocEvent(3, n); }
static void  hsgo_stream_free(void *p)    { hsgoFreeEvent(3, p); }

static hs_error_t hsgo_set_allocator(int kind, int custom) {
	switch (kind) {
	case 0:
		return custom ? hs_set_database_allocator(hsgo_db_alloc, hsgo_db_free)
		              : hs_set_database_allocator(NULL, NULL);
	case 1:
		return custom ? hs_set_misc_allocator(hsgo_misc_alloc, hsgo_misc_free)
		              : hs_set_misc_allocator(NULL, NULL);
	case 2:
		return custom ? hs_set_scratch_allocator(hsgo_scratch_alloc, hsgo_scratch_free)
		              : hs_set_scratch_allocator(NULL, NULL);
	case 3:
		return custom ? hs_set_stream_allocator(hsgo_stream_alloc, hsgo_stream_free)
		              : hs_set_stream_allocator(NULL, NULL);
	}
	return HS_INVALID;
}
*/
import "C"

import (
	"math"
	"runtime"
	"runtime/cgo"
	"unsafe"
)

// emptyInput stands in for zero-length buffers; the engine rejects NULL data.
var emptyInput = [1]byte{}

func bytesPtr(b []byte) *C.char {
	if len(b) == 0 {
		return (*C.char)(unsafe.Pointer(&emptyInput[0]))
	}
	return (*C.char)(unsafe.Pointer(unsafe.SliceData(b)))
}

func checkLen(b []byte) error {
	if uint64(len(b)) > math.MaxUint32 {
		return ErrDataTooLarge
	}
	return nil
}

func rawScan(db *C.hs_database_t, data []byte, s *C.hs_scratch_t, ctx cgo.Handle) C.hs_error_t {
	return C.hsgo_scan(db, bytesPtr(data), C.uint(len(data)), s, C.uintptr_t(ctx))
}

func rawScanVector(db *C.hs_database_t, data [][]byte, s *C.hs_scratch_t, ctx cgo.Handle) C.hs_error_t {
	var pin runtime.Pinner
	defer pin.Unpin()

	ptrs := make([]*C.char, len(data))
	lens := make([]C.uint, len(data))
	for i, b := range data {
		ptrs[i] = bytesPtr(b)
		if len(b) > 0 {
			pin.Pin(unsafe.SliceData(b))
		}
		lens[i] = C.uint(len(b))
	}
	if len(data) == 0 {
		return C.hsgo_scan_vector(db, nil, nil, 0, s, C.uintptr_t(ctx))
	}
	return C.hsgo_scan_vector(db, &ptrs[0], &lens[0], C.uint(len(data)), s, C.uintptr_t(ctx))
}

func rawScanStream(st *C.hs_stream_t, data []byte, s *C.hs_scratch_t, ctx cgo.Handle) C.hs_error_t {
	return C.hsgo_scan_stream(st, bytesPtr(data), C.uint(len(data)), s, C.uintptr_t(ctx))
}

func rawCloseStream(st *C.hs_stream_t, s *C.hs_scratch_t, ctx cgo.Handle) C.hs_error_t {
	return C.hsgo_close_stream(st, s, C.uintptr_t(ctx))
}

func rawResetStream(st *C.hs_stream_t, s *C.hs_scratch_t, ctx cgo.Handle) C.hs_error_t {
	return C.hsgo_reset_stream(st, s, C.uintptr_t(ctx))
}

func rawResetAndCopyStream(to, from *C.hs_stream_t, s *C.hs_scratch_t, ctx cgo.Handle) C.hs_error_t {
	return C.hsgo_reset_and_copy_stream(to, from, s, C.uintptr_t(ctx))
}

func rawSetAllocator(k allocKind, custom bool) C.hs_error_t {
	c := C.int(0)
	if custom {
		c = 1
	}
	return C.hsgo_set_allocator(C.int(k), c)
}
