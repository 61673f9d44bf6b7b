//go:build cgo

package hyperscan

import (
	"fmt"
	"slices"
	"sync"
)

// Regex is a single compiled expression with a pool of scratch spaces, safe
// for concurrent use. Matches report leftmost start offsets.
type Regex struct {
	expr  string
	db    *BlockDatabase
	proto *Scratch
	pool  sync.Pool
}

// CompileRegex compiles expr in UTF-8 mode with start-of-match tracking.
func CompileRegex(expr string) (*Regex, error) {
	return CompileRegexFlags(expr, 0)
}

// CompileRegexFlags is CompileRegex with extra flags.
func CompileRegexFlags(expr string, flags Flag) (*Regex, error) {
	db, err := NewBlockDatabase(NewPattern(expr, flags|SomLeftMost|Utf8Mode))
	if err != nil {
		return nil, err
	}
	proto, err := NewScratch(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	re := &Regex{expr: expr, db: db, proto: proto}
	re.pool.New = func() any {
		s, err := re.proto.Clone()
		if err != nil {
			return err
		}
		return s
	}
	return re, nil
}

// MustCompileRegex is CompileRegex that panics on error.
func MustCompileRegex(expr string) *Regex {
	re, err := CompileRegex(expr)
	if err != nil {
		panic(fmt.Sprintf("hyperscan: CompileRegex(%q): %v", expr, err))
	}
	return re
}

func (re *Regex) String() string { return re.expr }

func (re *Regex) scan(b []byte, h MatchHandler) error {
	v := re.pool.Get()
	s, ok := v.(*Scratch)
	if !ok {
		return v.(error)
	}
	defer re.pool.Put(s)
	err := re.db.Scan(b, s, h)
	if IsTerminated(err) {
		return nil
	}
	return err
}

// Match reports whether b contains a match.
func (re *Regex) Match(b []byte) bool {
	found := false
	err := re.scan(b, func(Match) Decision {
		found = true
		return Stop
	})
	return err == nil && found
}

// MatchString is Match for strings.
func (re *Regex) MatchString(s string) bool { return re.Match([]byte(s)) }

// FindIndex returns the [start, end) of the first match, or nil.
func (re *Regex) FindIndex(b []byte) []int {
	all := re.FindAllIndex(b, 1)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// Find returns the text of the first match, or nil.
func (re *Regex) Find(b []byte) []byte {
	loc := re.FindIndex(b)
	if loc == nil {
		return nil
	}
	return b[loc[0]:loc[1]:loc[1]]
}

// FindAllIndex returns up to n non-overlapping matches in order of their
// start offset; n < 0 means all. When several matches share a start the
// longest one wins.
func (re *Regex) FindAllIndex(b []byte, n int) [][]int {
	if n == 0 {
		return nil
	}
	var spans [][]int
	// Matches arrive ordered by end offset; keep the longest candidate per
	// start, then resolve overlaps left to right.
	byStart := make(map[uint64]uint64)
	var starts []uint64
	if err := re.scan(b, func(m Match) Decision {
		if end, ok := byStart[m.From]; !ok {
			byStart[m.From] = m.To
			starts = append(starts, m.From)
		} else if m.To > end {
			byStart[m.From] = m.To
		}
		return Continue
	}); err != nil {
		return nil
	}
	slices.Sort(starts)
	var last uint64
	for _, from := range starts {
		if len(spans) > 0 && from < last {
			continue
		}
		to := byStart[from]
		spans = append(spans, []int{int(from), int(to)})
		last = to
		if n > 0 && len(spans) == n {
			break
		}
	}
	return spans
}

// Close frees the database and the prototype scratch. Pooled scratch spaces
// are released by the garbage collector.
func (re *Regex) Close() error {
	serr := re.proto.Close()
	if err := re.db.Close(); err != nil {
		return err
	}
	return serr
}
