package hyperscan

// Decision tells the engine whether to keep scanning after a match.
type Decision int

const (
	// Continue keeps scanning for further matches.
	Continue Decision = 0
	// Stop aborts the scan; the scan call returns ErrScanTerminated.
	Stop Decision = 1
)

// Match is a single match event. From is only meaningful for patterns
// compiled with SomLeftMost; otherwise it is zero.
type Match struct {
	ID    uint
	From  uint64
	To    uint64
	Flags uint
}

// MatchHandler is invoked synchronously, on the scanning goroutine, for
// every match in engine order. It must not retain the scratch or start
// another scan with it.
type MatchHandler func(m Match) Decision
