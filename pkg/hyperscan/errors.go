package hyperscan

import (
	"errors"
	"fmt"
)

// HsError is a status code returned by the native engine.
type HsError int

const (
	// ErrSuccess is never returned as an error; it exists so codes can be compared.
	ErrSuccess HsError = 0
	// ErrInvalid means a parameter passed to the engine was invalid.
	ErrInvalid HsError = -1
	// ErrNoMemory means a memory allocation failed.
	ErrNoMemory HsError = -2
	// ErrScanTerminated means a match handler asked the engine to stop.
	ErrScanTerminated HsError = -3
	// ErrCompilerError means the compiler rejected a pattern.
	ErrCompilerError HsError = -4
	// ErrDatabaseVersionError means the database was built by a different engine version.
	ErrDatabaseVersionError HsError = -5
	// ErrDatabasePlatformError means the database was built for a different platform.
	ErrDatabasePlatformError HsError = -6
	// ErrDatabaseModeError means the database was built for a different scan mode.
	ErrDatabaseModeError HsError = -7
	// ErrBadAlign means a parameter was not correctly aligned.
	ErrBadAlign HsError = -8
	// ErrBadAlloc means the memory allocator returned misaligned memory.
	ErrBadAlloc HsError = -9
	// ErrScratchInUse means the scratch region was already in use by another scan.
	ErrScratchInUse HsError = -10
	// ErrArchError means the host CPU lacks instructions the engine requires.
	ErrArchError HsError = -11
	// ErrInsufficientSpace means a caller-provided buffer was too small.
	ErrInsufficientSpace HsError = -12
	// ErrUnknown is an unexpected internal failure.
	ErrUnknown HsError = -13
)

var hsErrorMessages = map[HsError]string{
	ErrSuccess:               "success",
	ErrInvalid:               "invalid parameter",
	ErrNoMemory:              "memory allocation failed",
	ErrScanTerminated:        "scan terminated by match handler",
	ErrCompilerError:         "pattern compilation failed",
	ErrDatabaseVersionError:  "database built by a different engine version",
	ErrDatabasePlatformError: "database built for a different platform",
	ErrDatabaseModeError:     "database built for a different scan mode",
	ErrBadAlign:              "parameter not correctly aligned",
	ErrBadAlloc:              "allocator returned misaligned memory",
	ErrScratchInUse:          "scratch already in use",
	ErrArchError:             "unsupported CPU architecture",
	ErrInsufficientSpace:     "provided buffer too small",
	ErrUnknown:               "unknown internal error",
}

func (e HsError) Error() string {
	if msg, ok := hsErrorMessages[e]; ok {
		return msg
	}
	return fmt.Sprintf("unexpected engine error %d", int(e))
}

// Code returns the raw native status code.
func (e HsError) Code() int { return int(e) }

var (
	// ErrScratchTooSmall is returned when a scratch is used against a database
	// it was never allocated or grown for and the engine rejects it.
	ErrScratchTooSmall = errors.New("scratch too small for database")

	// ErrSerialization wraps native failures while decoding a serialized database.
	ErrSerialization = errors.New("invalid serialized database")

	// ErrPlatformUnsupported is matched by errors caused by a CPU or platform mismatch.
	ErrPlatformUnsupported = errors.New("platform unsupported")

	// ErrClosed is returned when using a database, scratch or stream after Close.
	ErrClosed = errors.New("already closed")

	// ErrUnsupported is returned by entry points not provided by the linked engine version.
	ErrUnsupported = errors.New("not supported by this engine build")

	// ErrAllocatorInUse is returned when allocator hooks are changed while
	// engine objects are still alive.
	ErrAllocatorInUse = errors.New("allocator cannot change while engine objects are alive")

	// ErrDataTooLarge is returned when a buffer exceeds the engine's 32-bit length limit.
	ErrDataTooLarge = errors.New("data exceeds 4GiB scan limit")

	// ErrStreamTerminated is returned when scanning a stream whose handler
	// already stopped it. Reset the stream to reuse it.
	ErrStreamTerminated = errors.New("stream already terminated")

	// ErrModeMismatch is returned when a deserialized database is used as the wrong type.
	ErrModeMismatch = errors.New("database mode mismatch")
)

// Is lets platform-related native codes match ErrPlatformUnsupported.
func (e HsError) Is(target error) bool {
	if target == ErrPlatformUnsupported {
		return e == ErrArchError || e == ErrDatabasePlatformError
	}
	return false
}

// CompileError describes a pattern the compiler rejected.
type CompileError struct {
	// Message is the compiler diagnostic.
	Message string
	// Expression is the index of the offending pattern, or -1 when the
	// failure is not tied to a particular pattern.
	Expression int
}

func (e *CompileError) Error() string {
	if e.Expression < 0 {
		return "compile error: " + e.Message
	}
	return fmt.Sprintf("compile error in expression %d: %s", e.Expression, e.Message)
}

// Unwrap makes errors.Is(err, ErrCompilerError) hold for compile errors.
func (e *CompileError) Unwrap() error { return ErrCompilerError }

// IsTerminated reports whether err is the callback-requested stop signal.
func IsTerminated(err error) bool {
	return errors.Is(err, ErrScanTerminated)
}

func serializationError(code HsError) error {
	return fmt.Errorf("%w: %w", ErrSerialization, code)
}
