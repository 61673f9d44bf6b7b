package matcher

import "github.com/praetorian-inc/hyperscan/pkg/hyperscan"

// engine reports which compiled rules occur in a buffer. fn receives the
// rule index and a match end offset; rules compiled with SingleMatch are
// reported at most once.
type engine interface {
	scan(content []byte, fn func(rule int, end uint64)) error
	close() error
}

// engineOnly reports whether p has semantics the capture stage cannot
// reproduce: approximate matching and logical combinations.
func engineOnly(p *hyperscan.Pattern) bool {
	if p.Flags&hyperscan.Combination != 0 {
		return true
	}
	return p.Ext != nil && p.Ext.Flags&(hyperscan.ExtEditDistance|hyperscan.ExtHammingDistance) != 0
}

// enginePattern returns the form of p the prefilter engine compiles: one
// report per rule is enough when captures are extracted afterwards.
func enginePattern(p *hyperscan.Pattern) *hyperscan.Pattern {
	q := *p
	q.Flags &^= hyperscan.SomLeftMost
	if !engineOnly(p) {
		q.Flags |= hyperscan.SingleMatch
	}
	return &q
}
