//go:build cgo

package hyperscan

import "runtime"

// Scan matches data against the database, calling h for every match.
// It returns ErrScanTerminated when h returned Stop. A nil h only checks
// that the scan runs.
func (db *BlockDatabase) Scan(data []byte, s *Scratch, h MatchHandler) error {
	p, err := db.ptr()
	if err != nil {
		return err
	}
	if err := checkLen(data); err != nil {
		return err
	}
	res, ctx, err := s.begin(h)
	if err != nil {
		return err
	}
	defer s.end()

	code := rawScan(p, data, res.ptr, ctx)
	runtime.KeepAlive(db)
	runtime.KeepAlive(data)
	return s.scanError(code, db.h)
}

// Scan matches the logical concatenation of data. Match offsets are
// relative to the start of data[0].
func (db *VectoredDatabase) Scan(data [][]byte, s *Scratch, h MatchHandler) error {
	p, err := db.ptr()
	if err != nil {
		return err
	}
	for _, b := range data {
		if err := checkLen(b); err != nil {
			return err
		}
	}
	res, ctx, err := s.begin(h)
	if err != nil {
		return err
	}
	defer s.end()

	code := rawScanVector(p, data, res.ptr, ctx)
	runtime.KeepAlive(db)
	return s.scanError(code, db.h)
}
