package sarif

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/hyperscan/pkg/matcher"
	"github.com/praetorian-inc/hyperscan/pkg/rule"
)

var testRules = []*rule.Rule{
	{ID: "t.token", Name: "Token", Description: "Opaque token", Categories: []string{"secret"}},
	{ID: "t.word", Name: "Word"},
}

func TestNewReport(t *testing.T) {
	report := NewReport("1.2.3", testRules)

	assert.Equal(t, SchemaURI, report.Schema)
	assert.Equal(t, Version, report.Version)
	require.Len(t, report.Runs, 1)
	driver := report.Runs[0].Tool.Driver
	assert.Equal(t, ToolName, driver.Name)
	assert.Equal(t, "1.2.3", driver.Version)
	require.Len(t, driver.Rules, 2)
	assert.Equal(t, "Opaque token", driver.Rules[0].ShortDescription.Text)
	assert.Equal(t, []string{"secret"}, driver.Rules[0].Properties.Tags)
	assert.Equal(t, "Word", driver.Rules[1].ShortDescription.Text)
	assert.Nil(t, driver.Rules[1].Properties)
}

func TestAddResult(t *testing.T) {
	report := NewReport("dev", testRules)
	content := []byte("first line\nkey tok_abc end\n")
	report.AddResult("/src/app.env", content, &matcher.Result{
		RuleIndex: 0,
		RuleID:    "t.token",
		RuleName:  "Token",
		Start:     15,
		End:       22,
		Snippet:   matcher.Snippet{Matching: []byte("tok_abc")},
	})

	require.Len(t, report.Runs[0].Results, 1)
	res := report.Runs[0].Results[0]
	assert.Equal(t, "t.token", res.RuleID)
	assert.Equal(t, "warning", res.Level)
	assert.Equal(t, "Token", res.Message.Text)

	loc := res.Locations[0].PhysicalLocation
	assert.Equal(t, "file:///src/app.env", loc.ArtifactLocation.URI)
	assert.Equal(t, Region{
		StartLine: 2, StartColumn: 5,
		EndLine: 2, EndColumn: 12,
		ByteOffset: 15, ByteLength: 7,
		Snippet: &Text{Text: "tok_abc"},
	}, loc.Region)
}

func TestWrite(t *testing.T) {
	report := NewReport("dev", testRules[1:])
	report.AddResult("rel/path.txt", []byte("word"), &matcher.Result{RuleID: "t.word", RuleName: "Word", End: 4})

	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2.1.0", decoded["version"])
	runs := decoded["runs"].([]any)
	results := runs[0].(map[string]any)["results"].([]any)
	require.Len(t, results, 1)
	uri := results[0].(map[string]any)["locations"].([]any)[0].(map[string]any)["physicalLocation"].(map[string]any)["artifactLocation"].(map[string]any)["uri"]
	assert.Equal(t, "rel/path.txt", uri)
}

func TestPosition(t *testing.T) {
	content := []byte("ab\ncd\n\nef")
	cases := []struct {
		off, line, col int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{6, 3, 1},
		{8, 4, 2},
		{99, 4, 3},
	}
	for _, tc := range cases {
		line, col := position(content, tc.off)
		assert.Equal(t, tc.line, line, "offset %d", tc.off)
		assert.Equal(t, tc.col, col, "offset %d", tc.off)
	}
}
