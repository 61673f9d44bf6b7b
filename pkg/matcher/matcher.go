// Package matcher runs rule sets over content. The native engine decides
// which rules occur in a buffer; a backtracking regex engine then extracts
// offsets and capture groups for those rules only. Rules the native engine
// rejects run on the backtracking engine alone, behind a keyword prefilter.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
	"github.com/praetorian-inc/hyperscan/pkg/prefilter"
	"github.com/praetorian-inc/hyperscan/pkg/rule"
)

// ErrClosed is returned by Match after Close.
var ErrClosed = errors.New("matcher: closed")

// Matcher is safe for concurrent use.
type Matcher struct {
	cfg      config
	rules    []*rule.Rule
	patterns []*hyperscan.Pattern
	captures []*regexp2.Regexp // nil for engine-only rules
	eng      engine
	onEngine []bool
	fallback []int
	pf       *prefilter.Prefilter
	stats    Stats

	mu     sync.RWMutex // held for reading by scans, for writing by Close
	closed bool
}

// New compiles rules. Rule i is reported with RuleIndex i.
func New(rules []*rule.Rule, opts ...Option) (*Matcher, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	patterns, err := rule.Patterns(rules)
	if err != nil {
		return nil, err
	}

	m := &Matcher{
		cfg:      cfg,
		rules:    rules,
		patterns: patterns,
		captures: make([]*regexp2.Regexp, len(rules)),
		onEngine: make([]bool, len(rules)),
		stats:    Stats{Rules: len(rules)},
	}
	for i, p := range patterns {
		if engineOnly(p) {
			continue
		}
		re, err := compileCapture(p, cfg.captureTimeout)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rules[i].ID, err)
		}
		m.captures[i] = re
	}

	eng, rejected, err := newEngine(patterns, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("compiling rules: %w", err)
	}
	m.eng = eng
	for i := range rules {
		m.onEngine[i] = true
	}
	keywords := make(map[int][]string)
	for i := range rules {
		rerr, ok := rejected[i]
		if !ok {
			continue
		}
		m.onEngine[i] = false
		m.stats.Rejected = append(m.stats.Rejected, rules[i].ID)
		if m.captures[i] == nil {
			cfg.logger.Warn("rule cannot run without the native engine", "rule", rules[i].ID, "error", rerr)
			continue
		}
		m.fallback = append(m.fallback, i)
		keywords[i] = rules[i].Keywords
	}
	m.stats.FallbackRules = len(m.fallback)
	m.stats.EngineRules = len(rules) - len(rejected)
	if cfg.prefilter && len(m.fallback) > 0 {
		m.pf = prefilter.New(keywords)
	}
	return m, nil
}

// compileCapture builds the capture regex for p, trying RE2 syntax first.
func compileCapture(p *hyperscan.Pattern, timeout time.Duration) (*regexp2.Regexp, error) {
	var opts regexp2.RegexOptions
	if p.Flags&hyperscan.Caseless != 0 {
		opts |= regexp2.IgnoreCase
	}
	if p.Flags&hyperscan.MultiLine != 0 {
		opts |= regexp2.Multiline
	}
	if p.Flags&hyperscan.DotAll != 0 {
		opts |= regexp2.Singleline
	}
	re, err := regexp2.Compile(p.Expression, opts|regexp2.RE2)
	if err != nil {
		re, err = regexp2.Compile(p.Expression, opts)
		if err != nil {
			return nil, err
		}
	}
	re.MatchTimeout = timeout
	return re, nil
}

// Stats reports how rules were split between the engines.
func (m *Matcher) Stats() Stats {
	s := m.stats
	s.Rejected = slices.Clone(s.Rejected)
	return s
}

// Match returns the results for content ordered by start offset, then rule.
func (m *Matcher) Match(content []byte) ([]*Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.match(content)
}

func (m *Matcher) match(content []byte) ([]*Result, error) {
	hit := make(map[int][]uint64)
	if m.eng != nil {
		err := m.eng.scan(content, func(idx int, end uint64) {
			hit[idx] = append(hit[idx], end)
		})
		if err != nil {
			return nil, fmt.Errorf("scanning: %w", err)
		}
	}
	candidates := make([]int, 0, len(hit)+len(m.fallback))
	for idx := range hit {
		candidates = append(candidates, idx)
	}
	if m.pf != nil {
		candidates = append(candidates, m.pf.Filter(content)...)
	} else {
		candidates = append(candidates, m.fallback...)
	}
	slices.Sort(candidates)

	var results []*Result
	dedup := NewDeduplicator(m.cfg.dedupe)
	var text *indexedText
	for _, idx := range candidates {
		var found []*Result
		if m.captures[idx] == nil {
			found = m.engineResults(idx, content, hit[idx])
		} else {
			if text == nil {
				text = newIndexedText(content)
			}
			found = m.captureResults(idx, content, text)
		}
		for _, r := range found {
			if dedup.Add(r) {
				results = append(results, r)
			}
		}
	}
	slices.SortStableFunc(results, func(a, b *Result) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.RuleIndex - b.RuleIndex
	})
	return results, nil
}

// MatchAll matches every buffer using up to workers goroutines. Results are
// in input order. The first error cancels the remaining work.
func (m *Matcher) MatchAll(ctx context.Context, contents [][]byte, workers int) ([][]*Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	out := make([][]*Result, len(contents))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, content := range contents {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := m.match(content)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases the native engine once running scans finish. Match fails
// afterwards.
func (m *Matcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if m.eng == nil {
		return nil
	}
	return m.eng.close()
}

func (m *Matcher) newResult(idx, start, end int, content []byte) *Result {
	r := m.rules[idx]
	res := &Result{
		RuleIndex: idx,
		RuleID:    r.ID,
		RuleName:  r.Name,
		Start:     start,
		End:       end,
		Engine:    m.onEngine[idx],
		Snippet:   Snippet{Matching: slices.Clone(content[start:end])},
	}
	res.Snippet.Before, res.Snippet.After = ExtractContext(content, start, end, m.cfg.contextLines)
	return res
}

// engineResults reports engine match ends directly. Their start is unknown,
// so Start equals End.
func (m *Matcher) engineResults(idx int, content []byte, ends []uint64) []*Result {
	out := make([]*Result, 0, len(ends))
	for _, end := range ends {
		out = append(out, m.newResult(idx, int(end), int(end), content))
	}
	return out
}

func (m *Matcher) captureResults(idx int, content []byte, text *indexedText) []*Result {
	re := m.captures[idx]
	p := m.patterns[idx]
	var out []*Result
	match, err := re.FindStringMatch(text.s)
	for ; match != nil && err == nil; match, err = re.FindNextMatch(match) {
		start, end := text.bytes(match.Index), text.bytes(match.Index+match.Length)
		if !admit(p, start, end) {
			continue
		}
		res := m.newResult(idx, start, end, content)
		for _, g := range match.Groups()[1:] {
			var val []byte
			if len(g.Captures) > 0 {
				val = []byte(g.String())
			}
			res.Groups = append(res.Groups, val)
			if g.Name != "" && !isNumber(g.Name) {
				if res.NamedGroups == nil {
					res.NamedGroups = make(map[string][]byte)
				}
				res.NamedGroups[g.Name] = val
			}
		}
		out = append(out, res)
	}
	if err != nil {
		m.cfg.logger.Warn("capture extraction stopped", "rule", m.rules[idx].ID, "error", err)
	}
	return out
}

// admit applies the constraints the backtracking engine does not know about.
func admit(p *hyperscan.Pattern, start, end int) bool {
	if start == end && p.Flags&hyperscan.AllowEmpty == 0 {
		return false
	}
	if p.Ext == nil {
		return true
	}
	e := p.Ext
	switch {
	case e.Flags&hyperscan.ExtMinLength != 0 && uint64(end-start) < e.MinLength:
		return false
	case e.Flags&hyperscan.ExtMinOffset != 0 && uint64(end) < e.MinOffset:
		return false
	case e.Flags&hyperscan.ExtMaxOffset != 0 && uint64(end) > e.MaxOffset:
		return false
	}
	return true
}

func isNumber(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
