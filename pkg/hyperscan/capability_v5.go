//go:build cgo && !hyperscan_v4

package hyperscan

/*
#include <stdint.h>
#include <stdlib.h>
#include <hs.h>

extern int hsgo_match_bridge(unsigned int id, unsigned long long from, unsigned long long to, unsigned int flags, void *ctx);

static hs_error_t hsgo_reset_and_expand_stream(hs_stream_t *to, const char *buf, size_t size,
                                               hs_scratch_t *scratch, uintptr_t ctx) {
	return hs_reset_and_expand_stream(to, buf, size, scratch, ctx ? hsgo_match_bridge : NULL, (void *)ctx);
}
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"
)

func setHammingDistance(ce *C.hs_expr_ext_t, e *Ext) {
	ce.hamming_distance = C.uint(e.HammingDistance)
}

func compileLiterals(literals []*Literal, mode ModeFlag, cfg *compileConfig) (*dbHandle, error) {
	if len(literals) == 0 {
		return nil, &CompileError{Message: "no literals to compile", Expression: -1}
	}
	if err := checkPatternIDs(len(literals), func(i int) int { return literals[i].ID }); err != nil {
		return nil, err
	}

	var a cArena
	defer a.free()

	n := len(literals)
	exprs := unsafe.Slice((**C.char)(a.calloc(uintptr(n)*unsafe.Sizeof((*C.char)(nil)))), n)
	flags := unsafe.Slice((*C.uint)(a.calloc(uintptr(n)*unsafe.Sizeof(C.uint(0)))), n)
	ids := unsafe.Slice((*C.uint)(a.calloc(uintptr(n)*unsafe.Sizeof(C.uint(0)))), n)
	lens := unsafe.Slice((*C.size_t)(a.calloc(uintptr(n)*unsafe.Sizeof(C.size_t(0)))), n)

	som := false
	var horizons []ModeFlag
	for i, l := range literals {
		if l.Expression == "" {
			return nil, &CompileError{Message: "empty literal", Expression: i}
		}
		if l.Flags&^literalFlags != 0 {
			return nil, &CompileError{Message: "unsupported literal flags " + (l.Flags &^ literalFlags).String(), Expression: i}
		}
		exprs[i] = a.cbytes(l.Expression)
		lens[i] = C.size_t(len(l.Expression))
		flags[i] = C.uint(l.Flags)
		ids[i] = C.uint(l.ID)
		if l.Flags&SomLeftMost != 0 {
			som = true
			horizons = append(horizons, l.SomHorizon)
		}
	}
	mode = withSomHorizon(mode, som, horizons)

	var platform *C.hs_platform_info_t
	if cfg.platform != nil {
		platform = cfg.platform.cPlatform(&a)
	}

	var db *C.hs_database_t
	var cerr *C.hs_compile_error_t
	code := C.hs_compile_lit_multi(&exprs[0], &flags[0], &ids[0], &lens[0], C.uint(n), C.uint(mode),
		platform, &db, &cerr)
	if code != C.HS_SUCCESS {
		return nil, compileError(cerr, code)
	}
	log().Debug("compiled literal database", "literals", n, "mode", mode.String())
	return newHandle(db, mode), nil
}

// Compress writes the stream state into buf, growing it when it is too
// small, and returns the used prefix. The stream is unchanged.
func (st *Stream) Compress(buf []byte) ([]byte, error) {
	if err := st.check(); err != nil {
		return nil, err
	}
	buf = buf[:cap(buf)]
	for {
		var used C.size_t
		var p *C.char
		if len(buf) > 0 {
			p = (*C.char)(unsafe.Pointer(unsafe.SliceData(buf)))
		}
		code := C.hs_compress_stream(st.res.ptr, p, C.size_t(len(buf)), &used)
		runtime.KeepAlive(st)
		switch HsError(code) {
		case ErrSuccess:
			return buf[:used], nil
		case ErrInsufficientSpace:
			if int(used) <= len(buf) {
				return nil, fmt.Errorf("compressing stream: %w", ErrInsufficientSpace)
			}
			buf = make([]byte, used)
		default:
			return nil, fmt.Errorf("compressing stream: %w", HsError(code))
		}
	}
}

// Expand creates a stream from state produced by Stream.Compress on a stream
// of this database.
func (db *StreamDatabase) Expand(buf []byte) (*Stream, error) {
	p, err := db.ptr()
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("expanding stream: empty state: %w", ErrInvalid)
	}
	var st *C.hs_stream_t
	code := C.hs_expand_stream(p, &st, (*C.char)(unsafe.Pointer(unsafe.SliceData(buf))), C.size_t(len(buf)))
	runtime.KeepAlive(db)
	if code != C.HS_SUCCESS {
		return nil, fmt.Errorf("expanding stream: %w", HsError(code))
	}
	return newStream(st, db.h), nil
}

// ResetAndExpand reports st's end-of-data matches to h, then replaces its
// state with the compressed state in buf.
func (st *Stream) ResetAndExpand(buf []byte, s *Scratch, h MatchHandler) error {
	if err := st.check(); err != nil {
		return err
	}
	if len(buf) == 0 {
		return fmt.Errorf("expanding stream: empty state: %w", ErrInvalid)
	}
	sp, ctx, err := flushScratch(s, h)
	if err != nil {
		return err
	}
	defer endFlush(s, h)

	code := C.hsgo_reset_and_expand_stream(st.res.ptr, (*C.char)(unsafe.Pointer(unsafe.SliceData(buf))),
		C.size_t(len(buf)), sp, C.uintptr_t(ctx))
	runtime.KeepAlive(st)
	st.terminated = false
	return flushError(s, h, code, st.res.db)
}
