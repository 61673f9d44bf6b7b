//go:build cgo

package hyperscan

/*
#include <hs.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"
)

// Serialize returns the portable byte form of the database.
func (d *database) Serialize() ([]byte, error) {
	p, err := d.ptr()
	if err != nil {
		return nil, err
	}
	var buf *C.char
	var n C.size_t
	code := C.hs_serialize_database(p, &buf, &n)
	runtime.KeepAlive(d)
	if code != C.HS_SUCCESS {
		return nil, fmt.Errorf("serializing database: %w", HsError(code))
	}
	defer miscFree(unsafe.Pointer(buf))
	return C.GoBytes(unsafe.Pointer(buf), C.int(n)), nil
}

func serialPtr(b []byte) (*C.char, C.size_t, error) {
	if len(b) == 0 {
		return nil, 0, fmt.Errorf("%w: empty input", ErrSerialization)
	}
	return (*C.char)(unsafe.Pointer(unsafe.SliceData(b))), C.size_t(len(b)), nil
}

// SerializedSize returns the memory a deserialized copy of b will occupy.
// This is usually larger than len(b).
func SerializedSize(b []byte) (int, error) {
	p, n, err := serialPtr(b)
	if err != nil {
		return 0, err
	}
	var size C.size_t
	if code := C.hs_serialized_database_size(p, n, &size); code != C.HS_SUCCESS {
		return 0, serializationError(HsError(code))
	}
	return int(size), nil
}

// SerializedInfo describes a serialized database without deserializing it.
func SerializedInfo(b []byte) (DbInfo, error) {
	p, n, err := serialPtr(b)
	if err != nil {
		return DbInfo{}, err
	}
	var info *C.char
	if code := C.hs_serialized_database_info(p, n, &info); code != C.HS_SUCCESS {
		return DbInfo{}, serializationError(HsError(code))
	}
	defer miscFree(unsafe.Pointer(info))
	return ParseDbInfo(C.GoString(info))
}

// Deserialize reconstructs a database from Serialize output. The concrete
// type follows the serialized mode. Truncated, corrupt or foreign input is
// reported as an error matching ErrSerialization; engine version and
// platform mismatches also match their native codes.
func Deserialize(b []byte) (Database, error) {
	info, err := SerializedInfo(b)
	if err != nil {
		return nil, err
	}
	p, n, _ := serialPtr(b)
	var db *C.hs_database_t
	if code := C.hs_deserialize_database(p, n, &db); code != C.HS_SUCCESS {
		return nil, serializationError(HsError(code))
	}
	log().Debug("deserialized database", "bytes", len(b), "info", info.Raw)
	return wrapHandle(newHandle(db, info.Mode))
}

// DeserializeBlock is Deserialize for input that must be a block database.
func DeserializeBlock(b []byte) (*BlockDatabase, error) {
	return deserializeAs[*BlockDatabase](b)
}

// DeserializeVectored is Deserialize for input that must be a vectored database.
func DeserializeVectored(b []byte) (*VectoredDatabase, error) {
	return deserializeAs[*VectoredDatabase](b)
}

// DeserializeStream is Deserialize for input that must be a stream database.
func DeserializeStream(b []byte) (*StreamDatabase, error) {
	return deserializeAs[*StreamDatabase](b)
}

func deserializeAs[T Database](b []byte) (T, error) {
	var zero T
	db, err := Deserialize(b)
	if err != nil {
		return zero, err
	}
	typed, ok := db.(T)
	if !ok {
		mode := db.Mode()
		db.Close()
		return zero, fmt.Errorf("%w: got %s", ErrModeMismatch, mode)
	}
	return typed, nil
}

// DeserializeInto replaces the database contents with b, reusing the memory
// already allocated for it. It fails with ErrInvalid when the database is
// shared with clones or streams, when b needs more memory than is allocated,
// or when b was built for another mode. Scratch spaces must be grown again.
func (d *database) DeserializeInto(b []byte) error {
	p, err := d.ptr()
	if err != nil {
		return err
	}
	if d.h.refs.Load() != 1 {
		return fmt.Errorf("database is shared: %w", ErrInvalid)
	}
	info, err := SerializedInfo(b)
	if err != nil {
		return err
	}
	if info.Mode.ScanMode() != d.h.mode.ScanMode() {
		return fmt.Errorf("%w: have %s, got %s", ErrModeMismatch, d.h.mode, info.Mode)
	}
	need, err := SerializedSize(b)
	if err != nil {
		return err
	}
	have, err := d.Size()
	if err != nil {
		return err
	}
	if need > have {
		return fmt.Errorf("serialized database needs %d bytes, %d allocated: %w", need, have, ErrInvalid)
	}

	sp, n, _ := serialPtr(b)
	code := C.hs_deserialize_database_at(sp, n, p)
	runtime.KeepAlive(d)
	if code != C.HS_SUCCESS {
		return serializationError(HsError(code))
	}
	d.h.id = nextDatabaseID.Add(1)
	return nil
}
