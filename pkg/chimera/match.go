package chimera

import (
	"fmt"
	"strings"
)

// Decision is returned by handlers to steer the scan.
type Decision int

const (
	// Continue keeps scanning.
	Continue Decision = 0
	// Terminate stops the scan; Scan returns ErrScanTerminated.
	Terminate Decision = 1
	// SkipPattern stops reporting matches for the current pattern.
	SkipPattern Decision = 2
)

// Capture is one capture group of a match. Inactive groups did not
// participate in the match and have zero offsets.
type Capture struct {
	Active   bool
	From, To uint64
}

// Match is one reported match. In Groups mode Captures[0] is the whole
// match and Captures[i] is group i.
type Match struct {
	ID       uint
	From, To uint64
	Flags    uint
	Captures []Capture
}

// MatchHandler receives each match. The Captures slice is owned by the
// handler.
type MatchHandler func(Match) Decision

// ErrorType identifies a PCRE limit hit during a scan.
type ErrorType int

const (
	MatchLimit     ErrorType = 1
	RecursionLimit ErrorType = 2
)

func (t ErrorType) String() string {
	switch t {
	case MatchLimit:
		return "match limit"
	case RecursionLimit:
		return "recursion limit"
	}
	return fmt.Sprintf("error event %d", int(t))
}

// ErrorEvent reports that pattern ID exceeded a PCRE limit.
type ErrorEvent struct {
	Type ErrorType
	ID   uint
}

// ErrorHandler decides what happens after a limit is hit.
type ErrorHandler func(ErrorEvent) Decision

// LimitError is returned by Scan when limits were hit and no ErrorHandler
// was supplied. The affected patterns were skipped.
type LimitError struct {
	Events []ErrorEvent
}

func (e *LimitError) Error() string {
	parts := make([]string, len(e.Events))
	for i, ev := range e.Events {
		parts[i] = fmt.Sprintf("pattern %d: %s", ev.ID, ev.Type)
	}
	return "pcre limit exceeded: " + strings.Join(parts, ", ")
}
