package prefilter

import (
	"slices"

	"github.com/cloudflare/ahocorasick"
)

// Prefilter finds which rules can possibly match a buffer by looking for
// their literal keywords with a single Aho-Corasick pass.
type Prefilter struct {
	matcher  *ahocorasick.Matcher
	keywords []string         // keyword at each matcher index
	owners   map[string][]int // keyword -> rules needing it
	always   []int            // rules without keywords
}

// New builds a prefilter from rule index to keywords. Rules with no
// keywords always pass.
func New(keywords map[int][]string) *Prefilter {
	pf := &Prefilter{owners: make(map[string][]int)}

	rules := make([]int, 0, len(keywords))
	for idx := range keywords {
		rules = append(rules, idx)
	}
	slices.Sort(rules)

	for _, idx := range rules {
		kws := keywords[idx]
		if len(kws) == 0 {
			pf.always = append(pf.always, idx)
			continue
		}
		for _, kw := range kws {
			if _, ok := pf.owners[kw]; !ok {
				pf.keywords = append(pf.keywords, kw)
			}
			pf.owners[kw] = append(pf.owners[kw], idx)
		}
	}
	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}
	return pf
}

// Filter returns the sorted indices of rules that might match content.
func (pf *Prefilter) Filter(content []byte) []int {
	result := slices.Clone(pf.always)
	if pf.matcher == nil {
		return result
	}
	seen := make(map[int]bool, len(result))
	for _, idx := range result {
		seen[idx] = true
	}
	for _, hit := range pf.matcher.Match(content) {
		for _, idx := range pf.owners[pf.keywords[hit]] {
			if !seen[idx] {
				seen[idx] = true
				result = append(result, idx)
			}
		}
	}
	slices.Sort(result)
	return result
}

// Selective reports whether any rule has keywords; when none do, Filter
// always returns every rule.
func (pf *Prefilter) Selective() bool { return pf.matcher != nil }
