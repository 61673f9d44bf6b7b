//go:build cgo && chimera

package chimera

/*
#include <stdlib.h>
#include <ch.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"
	"unsafe"

	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
)

// PCRE's compiled-in defaults, used when only one limit is set.
const (
	defaultMatchLimit          = 10_000_000
	defaultMatchLimitRecursion = 10_000_000
)

type compileConfig struct {
	platform       *hyperscan.Platform
	matchLimit     uint64
	recursionLimit uint64
}

// CompileOption configures Compile.
type CompileOption func(*compileConfig)

// WithPlatform compiles for p instead of the host.
func WithPlatform(p hyperscan.Platform) CompileOption {
	return func(c *compileConfig) { c.platform = &p }
}

// WithMatchLimit bounds PCRE backtracking per match attempt.
func WithMatchLimit(n uint64) CompileOption {
	return func(c *compileConfig) { c.matchLimit = n }
}

// WithMatchLimitRecursion bounds PCRE recursion depth per match attempt.
func WithMatchLimitRecursion(n uint64) CompileOption {
	return func(c *compileConfig) { c.recursionLimit = n }
}

// Database is a compiled chimera pattern set. Scans may run concurrently,
// each with its own Scratch.
type Database struct {
	mu       sync.RWMutex
	ptr      *C.ch_database_t
	mode     Mode
	patterns int
	cleanup  runtime.Cleanup
}

func freeDatabase(ptr *C.ch_database_t) { C.ch_free_database(ptr) }

// Compile builds a database from patterns. Pattern ids are reported in
// matches; in Groups mode matches carry capture offsets.
func Compile(patterns []*Pattern, mode Mode, opts ...CompileOption) (*Database, error) {
	if len(patterns) == 0 {
		return nil, &CompileError{Message: "no patterns", Expression: -1}
	}
	cfg := &compileConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	n := len(patterns)
	exprs := unsafe.Slice((**C.char)(C.calloc(C.size_t(n), C.size_t(unsafe.Sizeof((*C.char)(nil))))), n)
	flags := unsafe.Slice((*C.uint)(C.calloc(C.size_t(n), C.size_t(unsafe.Sizeof(C.uint(0))))), n)
	ids := unsafe.Slice((*C.uint)(C.calloc(C.size_t(n), C.size_t(unsafe.Sizeof(C.uint(0))))), n)
	defer func() {
		for _, e := range exprs {
			C.free(unsafe.Pointer(e))
		}
		C.free(unsafe.Pointer(&exprs[0]))
		C.free(unsafe.Pointer(&flags[0]))
		C.free(unsafe.Pointer(&ids[0]))
	}()
	for i, p := range patterns {
		if p.ID < 0 || uint64(p.ID) > uint64(^uint32(0)) {
			return nil, &CompileError{Message: fmt.Sprintf("pattern id %d out of range", p.ID), Expression: i}
		}
		if strings.IndexByte(p.Expression, 0) >= 0 {
			return nil, &CompileError{Message: "expression contains a NUL byte", Expression: i}
		}
		exprs[i] = C.CString(p.Expression)
		flags[i] = C.uint(p.Flags)
		ids[i] = C.uint(p.ID)
	}

	var platform *C.hs_platform_info_t
	if cfg.platform != nil {
		platform = (*C.hs_platform_info_t)(C.calloc(1, C.size_t(unsafe.Sizeof(C.hs_platform_info_t{}))))
		defer C.free(unsafe.Pointer(platform))
		platform.tune = C.uint(cfg.platform.Tune)
		platform.cpu_features = C.ulonglong(cfg.platform.CPUFeatures)
	}

	var (
		db   *C.ch_database_t
		cerr *C.ch_compile_error_t
		code C.ch_error_t
	)
	if cfg.matchLimit == 0 && cfg.recursionLimit == 0 {
		code = C.ch_compile_multi(&exprs[0], &flags[0], &ids[0], C.uint(n), C.uint(mode), platform, &db, &cerr)
	} else {
		ml, rl := cfg.matchLimit, cfg.recursionLimit
		if ml == 0 {
			ml = defaultMatchLimit
		}
		if rl == 0 {
			rl = defaultMatchLimitRecursion
		}
		code = C.ch_compile_ext_multi(&exprs[0], &flags[0], &ids[0], C.uint(n), C.uint(mode),
			C.ulong(ml), C.ulong(rl), platform, &db, &cerr)
	}
	if code != C.CH_SUCCESS {
		if cerr != nil {
			defer C.ch_free_compile_error(cerr)
			return nil, &CompileError{Message: C.GoString(cerr.message), Expression: int(cerr.expression)}
		}
		return nil, fmt.Errorf("compiling chimera database: %w", ChError(code))
	}

	d := &Database{ptr: db, mode: mode, patterns: n}
	d.cleanup = runtime.AddCleanup(d, freeDatabase, db)
	log().Debug("compiled database", "patterns", n, "mode", mode)
	return d, nil
}

// Mode returns the capture mode the database was compiled with.
func (db *Database) Mode() Mode { return db.mode }

// Size returns the database size in bytes.
func (db *Database) Size() (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.ptr == nil {
		return 0, ErrClosed
	}
	var size C.size_t
	if code := C.ch_database_size(db.ptr, &size); code != C.CH_SUCCESS {
		return 0, ChError(code)
	}
	return int(size), nil
}

// Info returns the engine's description of the database.
func (db *Database) Info() (string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.ptr == nil {
		return "", ErrClosed
	}
	var info *C.char
	if code := C.ch_database_info(db.ptr, &info); code != C.CH_SUCCESS {
		return "", ChError(code)
	}
	defer C.free(unsafe.Pointer(info))
	return C.GoString(info), nil
}

// Close frees the database. It waits for scans in progress.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.ptr == nil {
		return ErrClosed
	}
	db.cleanup.Stop()
	freeDatabase(db.ptr)
	db.ptr = nil
	return nil
}

// Scan matches data against the database. onMatch and onError may be nil.
// A Terminate decision makes Scan return ErrScanTerminated. When a PCRE
// limit is hit and onError is nil the pattern is skipped and Scan returns a
// *LimitError once the scan completes.
func (db *Database) Scan(data []byte, s *Scratch, onMatch MatchHandler, onError ErrorHandler) error {
	if tooLarge(data) {
		return fmt.Errorf("scan of %d bytes: %w", len(data), ErrInvalid)
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.ptr == nil {
		return ErrClosed
	}
	res, err := s.begin(onMatch, onError)
	if err != nil {
		return err
	}
	defer s.end()

	code := rawScan(db.ptr, data, res.ptr, res.handle)
	switch e := ChError(code); e {
	case ErrSuccess:
		if len(res.tramp.events) > 0 {
			return &LimitError{Events: slices.Clone(res.tramp.events)}
		}
		return nil
	case ErrScanTerminated:
		return e
	default:
		return fmt.Errorf("chimera scan: %w", e)
	}
}
