package matcher

import (
	"crypto/sha256"
	"encoding/hex"
)

// DedupeMode controls how matches are deduplicated.
type DedupeMode int

const (
	// DedupeByLocation treats each rule/offset pair as distinct.
	DedupeByLocation DedupeMode = iota
	// DedupeByContent keeps one result per rule and captured value.
	DedupeByContent
)

// Deduplicator drops results already seen.
type Deduplicator struct {
	seen map[string]struct{}
	mode DedupeMode
}

func NewDeduplicator(mode DedupeMode) *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{}), mode: mode}
}

// Add records r and reports whether it was new.
func (d *Deduplicator) Add(r *Result) bool {
	key := d.key(r)
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

func (d *Deduplicator) key(r *Result) string {
	if d.mode != DedupeByContent {
		return r.Key()
	}
	h := sha256.New()
	h.Write([]byte(r.RuleID))
	h.Write([]byte{0})
	if len(r.Groups) == 0 {
		h.Write(r.Snippet.Matching)
	}
	for _, g := range r.Groups {
		h.Write(g)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
