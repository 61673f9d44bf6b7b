//go:build cgo

package hyperscan

/*
#include <hs.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/cgo"
)

// Stream is the state of one streaming scan. Chunks fed through Scan are
// matched as one continuous input. A Stream must be used by one goroutine at
// a time and must be closed exactly once.
type Stream struct {
	res        *streamRes
	closed     bool
	terminated bool
	cleanup    runtime.Cleanup
}

// streamRes owns the native stream and a reference on its database, so the
// database outlives every stream opened against it.
type streamRes struct {
	ptr *C.hs_stream_t
	db  *dbHandle
}

func freeStream(res *streamRes) {
	C.hs_close_stream(res.ptr, nil, nil, nil)
	res.ptr = nil
	liveObjects.Add(-1)
	res.db.release()
}

func newStream(ptr *C.hs_stream_t, h *dbHandle) *Stream {
	h.refs.Add(1)
	liveObjects.Add(1)
	res := &streamRes{ptr: ptr, db: h}
	st := &Stream{res: res}
	st.cleanup = runtime.AddCleanup(st, freeStream, res)
	return st
}

// StreamSize returns the size of one stream's state for this database.
func (db *StreamDatabase) StreamSize() (int, error) {
	p, err := db.ptr()
	if err != nil {
		return 0, err
	}
	var size C.size_t
	code := C.hs_stream_size(p, &size)
	runtime.KeepAlive(db)
	if code != C.HS_SUCCESS {
		return 0, HsError(code)
	}
	return int(size), nil
}

// Open starts a new stream.
func (db *StreamDatabase) Open() (*Stream, error) {
	p, err := db.ptr()
	if err != nil {
		return nil, err
	}
	var st *C.hs_stream_t
	code := C.hs_open_stream(p, 0, &st)
	runtime.KeepAlive(db)
	if code != C.HS_SUCCESS {
		return nil, fmt.Errorf("opening stream: %w", HsError(code))
	}
	return newStream(st, db.h), nil
}

func (st *Stream) check() error {
	if st.closed {
		return ErrClosed
	}
	return nil
}

// Scan feeds the next chunk. Matches may span chunk boundaries; offsets are
// relative to the start of the stream. Once h returns Stop the stream only
// accepts Reset or Close.
func (st *Stream) Scan(data []byte, s *Scratch, h MatchHandler) error {
	if err := st.check(); err != nil {
		return err
	}
	if st.terminated {
		return ErrStreamTerminated
	}
	if err := checkLen(data); err != nil {
		return err
	}
	res, ctx, err := s.begin(h)
	if err != nil {
		return err
	}
	defer s.end()

	code := rawScanStream(st.res.ptr, data, res.ptr, ctx)
	runtime.KeepAlive(st)
	err = s.scanError(code, st.res.db)
	if errors.Is(err, ErrScanTerminated) {
		st.terminated = true
	}
	return err
}

// flushScratch claims s for an end-of-data flush. Without a handler no
// scratch is needed.
func flushScratch(s *Scratch, h MatchHandler) (*C.hs_scratch_t, cgo.Handle, error) {
	if h == nil {
		return nil, 0, nil
	}
	res, ctx, err := s.begin(h)
	if err != nil {
		return nil, 0, err
	}
	return res.ptr, ctx, nil
}

func endFlush(s *Scratch, h MatchHandler) {
	if h != nil {
		s.end()
	}
}

func flushError(s *Scratch, h MatchHandler, code C.hs_error_t, db *dbHandle) error {
	if h == nil {
		if code != C.HS_SUCCESS {
			return HsError(code)
		}
		return nil
	}
	// the engine reports success even when the handler stopped the flush
	if code == C.HS_SUCCESS && s.res.tramp.stopped {
		return ErrScanTerminated
	}
	return s.scanError(code, db)
}

// Close reports end-of-data matches to h and frees the stream. With a nil
// handler pending matches are discarded and s may be nil. If h returns Stop
// the stream is still freed and Close returns ErrScanTerminated. When the
// engine refuses the call (for example because s is too small) the stream
// stays open and Close may be retried.
func (st *Stream) Close(s *Scratch, h MatchHandler) error {
	if err := st.check(); err != nil {
		return err
	}
	sp, ctx, err := flushScratch(s, h)
	if err != nil {
		return err
	}
	defer endFlush(s, h)

	code := rawCloseStream(st.res.ptr, sp, ctx)
	runtime.KeepAlive(st)
	if code == C.HS_SUCCESS {
		st.closed = true
		st.cleanup.Stop()
		st.res.ptr = nil
		liveObjects.Add(-1)
		st.res.db.release()
	}
	return flushError(s, h, code, st.res.db)
}

// Reset reports end-of-data matches to h and returns the stream to its
// initial state without reallocating it. If h returns Stop the stream is
// still reset and Reset returns ErrScanTerminated.
func (st *Stream) Reset(s *Scratch, h MatchHandler) error {
	if err := st.check(); err != nil {
		return err
	}
	sp, ctx, err := flushScratch(s, h)
	if err != nil {
		return err
	}
	defer endFlush(s, h)

	code := rawResetStream(st.res.ptr, sp, ctx)
	runtime.KeepAlive(st)
	st.terminated = false
	return flushError(s, h, code, st.res.db)
}

// Clone duplicates the stream state into a new, independent stream.
func (st *Stream) Clone() (*Stream, error) {
	if err := st.check(); err != nil {
		return nil, err
	}
	var to *C.hs_stream_t
	code := C.hs_copy_stream(&to, st.res.ptr)
	runtime.KeepAlive(st)
	if code != C.HS_SUCCESS {
		return nil, fmt.Errorf("copying stream: %w", HsError(code))
	}
	c := newStream(to, st.res.db)
	c.terminated = st.terminated
	return c, nil
}

// ResetAndCopy reports st's end-of-data matches to h, then overwrites st
// with a copy of from. Both streams must come from the same database.
func (st *Stream) ResetAndCopy(from *Stream, s *Scratch, h MatchHandler) error {
	if err := st.check(); err != nil {
		return err
	}
	if err := from.check(); err != nil {
		return err
	}
	if st.res.db != from.res.db {
		return fmt.Errorf("streams belong to different databases: %w", ErrInvalid)
	}
	sp, ctx, err := flushScratch(s, h)
	if err != nil {
		return err
	}
	defer endFlush(s, h)

	code := rawResetAndCopyStream(st.res.ptr, from.res.ptr, sp, ctx)
	runtime.KeepAlive(st)
	runtime.KeepAlive(from)
	st.terminated = from.terminated
	return flushError(s, h, code, st.res.db)
}
