package matcher

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Result is one rule match with its capture groups.
type Result struct {
	RuleIndex int
	RuleID    string
	RuleName  string
	// Start and End are byte offsets into the scanned content.
	Start, End  int
	Groups      [][]byte          // positional groups, group 1 first
	NamedGroups map[string][]byte // named groups only
	Snippet     Snippet
	// Engine is false when the rule was evaluated by the fallback regex
	// engine because the native engine rejected it.
	Engine bool
}

// Snippet is the matched text with optional surrounding lines.
type Snippet struct {
	Before   []byte
	Matching []byte
	After    []byte
}

// Key identifies a result by rule and location.
func (r *Result) Key() string {
	h := sha256.New()
	h.Write([]byte(r.RuleID))
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(r.Start))
	binary.LittleEndian.PutUint64(buf[8:], uint64(r.End))
	h.Write(buf[:])
	return hex.EncodeToString(h.Sum(nil))
}

// Stats describes how a matcher split its rules between engines.
type Stats struct {
	Rules         int
	EngineRules   int
	FallbackRules int
	Rejected      []string // IDs of rules the native engine could not compile
}
