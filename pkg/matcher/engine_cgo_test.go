//go:build cgo

package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
	"github.com/praetorian-inc/hyperscan/pkg/rule"
)

func TestEngine_IsolatesRejectedPatterns(t *testing.T) {
	m := newMatcher(t, []*rule.Rule{
		{ID: "t.a", Pattern: "foo"},
		{ID: "t.backref", Pattern: `(a)\1`},
		{ID: "t.b", Pattern: "bar"},
		{ID: "t.lookahead", Pattern: `x(?=y)`},
	})
	stats := m.Stats()
	assert.Equal(t, 2, stats.EngineRules)
	assert.Equal(t, 2, stats.FallbackRules)
	assert.ElementsMatch(t, []string{"t.backref", "t.lookahead"}, stats.Rejected)

	results, err := m.Match([]byte("foo aa xy bar"))
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, r.RuleID == "t.a" || r.RuleID == "t.b", r.Engine, r.RuleID)
	}
}

func TestEngine_ReportsOncePerRule(t *testing.T) {
	var calls []int
	e, rejected, err := newEngine([]*hyperscan.Pattern{
		{Expression: "a", ID: 0},
		{Expression: "b", ID: 1},
	}, defaultConfig().logger)
	require.NoError(t, err)
	require.Empty(t, rejected)
	defer e.close()

	require.NoError(t, e.scan([]byte("aaaa b aa"), func(rule int, _ uint64) {
		calls = append(calls, rule)
	}))
	assert.ElementsMatch(t, []int{0, 1}, calls)
}

func TestMatch_ApproximateRule(t *testing.T) {
	ext := hyperscan.Ext{}.WithEditDistance(1)
	m := newMatcher(t, []*rule.Rule{{ID: "t.fuzzy", Pattern: "foobar", Ext: &ext}})

	results, err := m.Match([]byte("xx fooxar yy"))
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, r.Start, r.End)
		assert.True(t, r.Engine)
	}
}
