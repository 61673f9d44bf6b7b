//go:build cgo

package hyperscan

/*
#include <stdlib.h>
#include <hs.h>
*/
import "C"

import (
	"strings"
	"unsafe"
)

// UnboundedMaxWidth is ExprInfo.MaxWidth for expressions with no upper bound.
const UnboundedMaxWidth = uint(^uint32(0))

// ExprInfo describes the matches an expression can produce.
type ExprInfo struct {
	MinWidth         uint
	MaxWidth         uint
	UnorderedMatches bool
	MatchesAtEOD     bool
	MatchesOnlyAtEOD bool
}

// ExpressionInfo analyses p without building a database.
func ExpressionInfo(p *Pattern) (*ExprInfo, error) {
	if strings.IndexByte(p.Expression, 0) >= 0 {
		return nil, &CompileError{Message: "expression contains a NUL byte", Expression: 0}
	}
	var a cArena
	defer a.free()

	expr := a.cstring(p.Expression)
	var ext *C.hs_expr_ext_t
	if p.Ext != nil && p.Ext.Flags != 0 {
		ext = p.Ext.cExt(&a)
	}
	var info *C.hs_expr_info_t
	var cerr *C.hs_compile_error_t
	if code := C.hs_expression_ext_info(expr, C.uint(p.Flags), ext, &info, &cerr); code != C.HS_SUCCESS {
		return nil, compileError(cerr, code)
	}
	defer miscFree(unsafe.Pointer(info))

	return &ExprInfo{
		MinWidth:         uint(info.min_width),
		MaxWidth:         uint(info.max_width),
		UnorderedMatches: info.unordered_matches != 0,
		MatchesAtEOD:     info.matches_at_eod != 0,
		MatchesOnlyAtEOD: info.matches_only_at_eod != 0,
	}, nil
}

// Info analyses the pattern. See ExpressionInfo.
func (p *Pattern) Info() (*ExprInfo, error) { return ExpressionInfo(p) }
