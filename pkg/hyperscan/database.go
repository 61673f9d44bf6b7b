//go:build cgo

package hyperscan

/*
#include <stdlib.h>
#include <hs.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"
)

// Database is a compiled pattern database. Implementations are
// *BlockDatabase, *VectoredDatabase and *StreamDatabase.
//
// A database is read-only once built and may be shared by any number of
// goroutines, each scanning with its own Scratch.
type Database interface {
	// ID identifies the underlying native database. Clones share an ID.
	ID() uint64
	Mode() ModeFlag
	// Size is the memory footprint of the native database in bytes.
	Size() (int, error)
	Info() (DbInfo, error)
	Serialize() ([]byte, error)
	Close() error

	base() *database
}

var nextDatabaseID atomic.Uint64

// dbHandle is the native database shared by a database and its clones.
type dbHandle struct {
	ptr  *C.hs_database_t
	id   uint64
	mode ModeFlag
	refs atomic.Int32
}

func newHandle(ptr *C.hs_database_t, mode ModeFlag) *dbHandle {
	h := &dbHandle{ptr: ptr, id: nextDatabaseID.Add(1), mode: mode}
	h.refs.Store(1)
	liveObjects.Add(1)
	return h
}

func (h *dbHandle) release() {
	if h.refs.Add(-1) == 0 {
		C.hs_free_database(h.ptr)
		h.ptr = nil
		liveObjects.Add(-1)
	}
}

type database struct {
	h       *dbHandle
	closed  atomic.Bool
	cleanup runtime.Cleanup
}

func newDatabase(h *dbHandle) *database {
	d := &database{h: h}
	d.cleanup = runtime.AddCleanup(d, (*dbHandle).release, h)
	return d
}

func (d *database) base() *database { return d }

func (d *database) ID() uint64 { return d.h.id }

func (d *database) Mode() ModeFlag { return d.h.mode }

func (d *database) ptr() (*C.hs_database_t, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	return d.h.ptr, nil
}

func (d *database) Size() (int, error) {
	p, err := d.ptr()
	if err != nil {
		return 0, err
	}
	var size C.size_t
	code := C.hs_database_size(p, &size)
	runtime.KeepAlive(d)
	if code != C.HS_SUCCESS {
		return 0, HsError(code)
	}
	return int(size), nil
}

func (d *database) Info() (DbInfo, error) {
	p, err := d.ptr()
	if err != nil {
		return DbInfo{}, err
	}
	var info *C.char
	code := C.hs_database_info(p, &info)
	runtime.KeepAlive(d)
	if code != C.HS_SUCCESS {
		return DbInfo{}, HsError(code)
	}
	defer miscFree(unsafe.Pointer(info))
	return ParseDbInfo(C.GoString(info))
}

// Close releases this handle. The native database is freed once every clone
// has been closed. Closing twice returns ErrClosed.
func (d *database) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	d.cleanup.Stop()
	d.h.release()
	return nil
}

func (d *database) clone() (*database, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	d.h.refs.Add(1)
	return newDatabase(d.h), nil
}

// BlockDatabase scans single contiguous buffers.
type BlockDatabase struct{ *database }

// VectoredDatabase scans a list of buffers as one logical input.
type VectoredDatabase struct{ *database }

// StreamDatabase scans data delivered in chunks through a Stream.
type StreamDatabase struct{ *database }

// Clone returns a new handle on the same native database.
func (db *BlockDatabase) Clone() (*BlockDatabase, error) {
	d, err := db.clone()
	if err != nil {
		return nil, err
	}
	return &BlockDatabase{d}, nil
}

// Clone returns a new handle on the same native database.
func (db *VectoredDatabase) Clone() (*VectoredDatabase, error) {
	d, err := db.clone()
	if err != nil {
		return nil, err
	}
	return &VectoredDatabase{d}, nil
}

// Clone returns a new handle on the same native database.
func (db *StreamDatabase) Clone() (*StreamDatabase, error) {
	d, err := db.clone()
	if err != nil {
		return nil, err
	}
	return &StreamDatabase{d}, nil
}

// wrapHandle picks the concrete database type for h's mode.
func wrapHandle(h *dbHandle) (Database, error) {
	d := newDatabase(h)
	switch h.mode.ScanMode() {
	case BlockMode:
		return &BlockDatabase{d}, nil
	case VectoredMode:
		return &VectoredDatabase{d}, nil
	case StreamMode:
		return &StreamDatabase{d}, nil
	}
	d.Close()
	return nil, fmt.Errorf("unknown database mode %s: %w", h.mode, ErrDatabaseModeError)
}
