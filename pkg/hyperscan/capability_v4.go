//go:build cgo && hyperscan_v4

package hyperscan

/*
#include <hs.h>
*/
import "C"

// Hyperscan 4.x has no literal compiler, stream compression or Hamming
// distance; these entry points report ErrUnsupported.

func setHammingDistance(_ *C.hs_expr_ext_t, _ *Ext) {}

func compileLiterals([]*Literal, ModeFlag, *compileConfig) (*dbHandle, error) {
	return nil, ErrUnsupported
}

// Compress is unavailable with Hyperscan 4.x.
func (st *Stream) Compress([]byte) ([]byte, error) { return nil, ErrUnsupported }

// Expand is unavailable with Hyperscan 4.x.
func (db *StreamDatabase) Expand([]byte) (*Stream, error) { return nil, ErrUnsupported }

// ResetAndExpand is unavailable with Hyperscan 4.x.
func (st *Stream) ResetAndExpand([]byte, *Scratch, MatchHandler) error { return ErrUnsupported }
