//go:build cgo

package hyperscan

/*
#include <stdlib.h>
#include <hs.h>
*/
import "C"

import (
	"fmt"
	"strings"
	"unsafe"
)

// cArena collects C allocations made while building compiler input.
type cArena struct{ ptrs []unsafe.Pointer }

func (a *cArena) calloc(n uintptr) unsafe.Pointer {
	p := C.calloc(1, C.size_t(n))
	a.ptrs = append(a.ptrs, p)
	return p
}

func (a *cArena) cstring(s string) *C.char {
	p := C.CString(s)
	a.ptrs = append(a.ptrs, unsafe.Pointer(p))
	return p
}

func (a *cArena) cbytes(s string) *C.char {
	p := C.CBytes([]byte(s))
	a.ptrs = append(a.ptrs, p)
	return (*C.char)(p)
}

func (a *cArena) free() {
	for _, p := range a.ptrs {
		C.free(p)
	}
	a.ptrs = nil
}

// CompileOption configures a compile call.
type CompileOption func(*compileConfig)

type compileConfig struct {
	platform *Platform
}

// WithPlatform tunes the database for p instead of the host.
func WithPlatform(p Platform) CompileOption {
	return func(c *compileConfig) { c.platform = &p }
}

func newCompileConfig(opts []CompileOption) *compileConfig {
	cfg := &compileConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// compileError converts and frees a native compile error.
func compileError(e *C.hs_compile_error_t, code C.hs_error_t) error {
	if e == nil {
		return HsError(code)
	}
	defer C.hs_free_compile_error(e)
	return &CompileError{Message: C.GoString(e.message), Expression: int(e.expression)}
}

// withSomHorizon adds a stream state horizon when a stream database tracks
// start of match and none was requested.
func withSomHorizon(mode ModeFlag, som bool, horizons []ModeFlag) ModeFlag {
	if mode.ScanMode() != StreamMode || !som || mode&somHorizonMask != 0 {
		return mode
	}
	best := SomHorizonMediumMode
	rank := 0
	for _, h := range horizons {
		if r := somHorizonRank(h); r > rank {
			best, rank = h&somHorizonMask, r
		}
	}
	return mode | best
}

func checkPatternIDs(n int, id func(int) int) error {
	for i := 0; i < n; i++ {
		if v := id(i); v < 0 || uint64(v) > uint64(^uint32(0)) {
			return &CompileError{Message: fmt.Sprintf("pattern id %d out of range", v), Expression: i}
		}
	}
	return nil
}

func compilePatterns(patterns []*Pattern, mode ModeFlag, cfg *compileConfig) (*dbHandle, error) {
	if len(patterns) == 0 {
		return nil, &CompileError{Message: "no patterns to compile", Expression: -1}
	}
	if err := checkPatternIDs(len(patterns), func(i int) int { return patterns[i].ID }); err != nil {
		return nil, err
	}

	var a cArena
	defer a.free()

	n := len(patterns)
	exprs := unsafe.Slice((**C.char)(a.calloc(uintptr(n)*unsafe.Sizeof((*C.char)(nil)))), n)
	flags := unsafe.Slice((*C.uint)(a.calloc(uintptr(n)*unsafe.Sizeof(C.uint(0)))), n)
	ids := unsafe.Slice((*C.uint)(a.calloc(uintptr(n)*unsafe.Sizeof(C.uint(0)))), n)
	exts := unsafe.Slice((**C.hs_expr_ext_t)(a.calloc(uintptr(n)*unsafe.Sizeof((*C.hs_expr_ext_t)(nil)))), n)

	som := false
	horizons := make([]ModeFlag, 0, n)
	for i, p := range patterns {
		if strings.IndexByte(p.Expression, 0) >= 0 {
			return nil, &CompileError{Message: "expression contains a NUL byte", Expression: i}
		}
		exprs[i] = a.cstring(p.Expression)
		flags[i] = C.uint(p.Flags)
		ids[i] = C.uint(p.ID)
		if p.Ext != nil && p.Ext.Flags != 0 {
			exts[i] = p.Ext.cExt(&a)
		}
		if p.Flags&SomLeftMost != 0 {
			som = true
			horizons = append(horizons, p.SomHorizon)
		}
	}
	mode = withSomHorizon(mode, som, horizons)

	var platform *C.hs_platform_info_t
	if cfg.platform != nil {
		platform = cfg.platform.cPlatform(&a)
	}

	var db *C.hs_database_t
	var cerr *C.hs_compile_error_t
	code := C.hs_compile_ext_multi(&exprs[0], &flags[0], &ids[0], &exts[0], C.uint(n), C.uint(mode),
		platform, &db, &cerr)
	if code != C.HS_SUCCESS {
		return nil, compileError(cerr, code)
	}
	log().Debug("compiled database", "patterns", n, "mode", mode.String())
	return newHandle(db, mode), nil
}

func (e *Ext) cExt(a *cArena) *C.hs_expr_ext_t {
	ce := (*C.hs_expr_ext_t)(a.calloc(unsafe.Sizeof(C.hs_expr_ext_t{})))
	ce.flags = C.ulonglong(e.Flags)
	ce.min_offset = C.ulonglong(e.MinOffset)
	ce.max_offset = C.ulonglong(e.MaxOffset)
	ce.min_length = C.ulonglong(e.MinLength)
	ce.edit_distance = C.uint(e.EditDistance)
	setHammingDistance(ce, e)
	return ce
}

// Compile builds a database for mode from patterns. The returned value is a
// *BlockDatabase, *VectoredDatabase or *StreamDatabase. On failure nothing is
// allocated and a *CompileError names the first rejected pattern.
func Compile(patterns []*Pattern, mode ModeFlag, opts ...CompileOption) (Database, error) {
	h, err := compilePatterns(patterns, mode, newCompileConfig(opts))
	if err != nil {
		return nil, err
	}
	return wrapHandle(h)
}

// NewBlockDatabase compiles patterns for block mode.
func NewBlockDatabase(patterns ...*Pattern) (*BlockDatabase, error) {
	h, err := compilePatterns(patterns, BlockMode, &compileConfig{})
	if err != nil {
		return nil, err
	}
	return &BlockDatabase{newDatabase(h)}, nil
}

// NewVectoredDatabase compiles patterns for vectored mode.
func NewVectoredDatabase(patterns ...*Pattern) (*VectoredDatabase, error) {
	h, err := compilePatterns(patterns, VectoredMode, &compileConfig{})
	if err != nil {
		return nil, err
	}
	return &VectoredDatabase{newDatabase(h)}, nil
}

// NewStreamDatabase compiles patterns for stream mode.
func NewStreamDatabase(patterns ...*Pattern) (*StreamDatabase, error) {
	h, err := compilePatterns(patterns, StreamMode, &compileConfig{})
	if err != nil {
		return nil, err
	}
	return &StreamDatabase{newDatabase(h)}, nil
}

// CompileLiterals builds a database from pure literals, bypassing the regex
// parser. Literals may contain any byte.
func CompileLiterals(literals []*Literal, mode ModeFlag, opts ...CompileOption) (Database, error) {
	h, err := compileLiterals(literals, mode, newCompileConfig(opts))
	if err != nil {
		return nil, err
	}
	return wrapHandle(h)
}

// DatabaseBuilder accumulates patterns and literals for a single compile.
// Patterns and literals cannot be mixed in one database.
type DatabaseBuilder struct {
	Patterns []*Pattern
	Literals []*Literal
	Mode     ModeFlag
	Platform *Platform
}

// AddExpressions parses each expression with ParsePattern and adds it.
func (b *DatabaseBuilder) AddExpressions(exprs ...string) error {
	for _, expr := range exprs {
		p, err := ParsePattern(expr)
		if err != nil {
			return err
		}
		b.Patterns = append(b.Patterns, p)
	}
	return nil
}

// AddPatterns adds patterns as they are.
func (b *DatabaseBuilder) AddPatterns(patterns ...*Pattern) *DatabaseBuilder {
	b.Patterns = append(b.Patterns, patterns...)
	return b
}

// AddLiterals adds literals as they are.
func (b *DatabaseBuilder) AddLiterals(literals ...*Literal) *DatabaseBuilder {
	b.Literals = append(b.Literals, literals...)
	return b
}

// Build compiles the accumulated input. Mode defaults to BlockMode.
func (b *DatabaseBuilder) Build() (Database, error) {
	mode := b.Mode
	if mode == 0 {
		mode = BlockMode
	}
	var opts []CompileOption
	if b.Platform != nil {
		opts = append(opts, WithPlatform(*b.Platform))
	}
	switch {
	case len(b.Patterns) > 0 && len(b.Literals) > 0:
		return nil, &CompileError{Message: "patterns and literals cannot share a database", Expression: -1}
	case len(b.Literals) > 0:
		return CompileLiterals(b.Literals, mode, opts...)
	default:
		return Compile(b.Patterns, mode, opts...)
	}
}
