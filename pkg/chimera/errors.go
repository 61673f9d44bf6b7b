package chimera

import (
	"errors"
	"fmt"
)

// ChError is a status code returned by the chimera engine.
type ChError int

const (
	ErrSuccess            ChError = 0
	ErrInvalid            ChError = -1
	ErrNoMemory           ChError = -2
	ErrScanTerminated     ChError = -3
	ErrCompilerError      ChError = -4
	ErrDatabaseVersion    ChError = -5
	ErrDatabasePlatform   ChError = -6
	ErrDatabaseMode       ChError = -7
	ErrBadAlign           ChError = -8
	ErrBadAlloc           ChError = -9
	ErrScratchInUse       ChError = -10
	ErrUnknownEngineError ChError = -13
	ErrFailInternal       ChError = -32
)

var chErrorMessages = map[ChError]string{
	ErrSuccess:            "success",
	ErrInvalid:            "invalid parameter",
	ErrNoMemory:           "memory allocation failed",
	ErrScanTerminated:     "scan terminated by handler",
	ErrCompilerError:      "pattern compilation failed",
	ErrDatabaseVersion:    "database built by a different engine version",
	ErrDatabasePlatform:   "database built for a different platform",
	ErrDatabaseMode:       "database built for a different mode",
	ErrBadAlign:           "parameter not correctly aligned",
	ErrBadAlloc:           "allocator returned misaligned memory",
	ErrScratchInUse:       "scratch already in use",
	ErrUnknownEngineError: "unexpected error from the underlying engine",
	ErrFailInternal:       "fatal internal error",
}

func (e ChError) Error() string {
	if msg, ok := chErrorMessages[e]; ok {
		return "chimera: " + msg
	}
	return fmt.Sprintf("chimera: unexpected error %d", int(e))
}

// Code returns the raw native status code.
func (e ChError) Code() int { return int(e) }

// ErrClosed is returned when a database or scratch is used after Close.
var ErrClosed = errors.New("chimera: already closed")

// CompileError describes a PCRE or engine compile failure.
type CompileError struct {
	Message    string
	Expression int
}

func (e *CompileError) Error() string {
	if e.Expression < 0 {
		return "chimera compile error: " + e.Message
	}
	return fmt.Sprintf("chimera compile error in expression %d: %s", e.Expression, e.Message)
}

func (e *CompileError) Unwrap() error { return ErrCompilerError }
