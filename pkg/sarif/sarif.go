// Package sarif renders matcher results as a SARIF 2.1.0 log.
package sarif

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/hyperscan/pkg/matcher"
	"github.com/praetorian-inc/hyperscan/pkg/rule"
)

const (
	SchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version   = "2.1.0"
	ToolName  = "hscan"
)

type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name    string          `json:"name"`
	Version string          `json:"version"`
	Rules   []ReportingRule `json:"rules,omitempty"`
}

// ReportingRule is a rule's entry in the driver's rule table.
type ReportingRule struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	ShortDescription Text        `json:"shortDescription"`
	Properties       *Properties `json:"properties,omitempty"`
}

type Properties struct {
	Tags []string `json:"tags,omitempty"`
}

type Text struct {
	Text string `json:"text"`
}

type Result struct {
	RuleID    string     `json:"ruleId"`
	RuleIndex int        `json:"ruleIndex"`
	Level     string     `json:"level"`
	Message   Text       `json:"message"`
	Locations []Location `json:"locations"`
}

type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region is a 1-based line/column range. Columns count bytes; EndColumn is
// exclusive.
type Region struct {
	StartLine   int   `json:"startLine"`
	StartColumn int   `json:"startColumn"`
	EndLine     int   `json:"endLine"`
	EndColumn   int   `json:"endColumn"`
	ByteOffset  int   `json:"byteOffset"`
	ByteLength  int   `json:"byteLength"`
	Snippet     *Text `json:"snippet,omitempty"`
}

// NewReport returns a report with one empty run whose driver lists rules
// in order, so a result's RuleIndex is the matcher's rule index.
func NewReport(toolVersion string, rules []*rule.Rule) *Report {
	driver := Driver{Name: ToolName, Version: toolVersion}
	for _, r := range rules {
		rr := ReportingRule{ID: r.ID, Name: r.Name, ShortDescription: Text{Text: r.Description}}
		if rr.ShortDescription.Text == "" {
			rr.ShortDescription.Text = r.Name
		}
		if len(r.Categories) > 0 {
			rr.Properties = &Properties{Tags: r.Categories}
		}
		driver.Rules = append(driver.Rules, rr)
	}
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs:    []Run{{Tool: Tool{Driver: driver}, Results: []Result{}}},
	}
}

// AddResult records res, found in content read from path.
func (r *Report) AddResult(path string, content []byte, res *matcher.Result) {
	region := Region{ByteOffset: res.Start, ByteLength: res.End - res.Start}
	region.StartLine, region.StartColumn = position(content, res.Start)
	region.EndLine, region.EndColumn = position(content, res.End)
	if len(res.Snippet.Matching) > 0 {
		region.Snippet = &Text{Text: string(res.Snippet.Matching)}
	}
	r.Runs[0].Results = append(r.Runs[0].Results, Result{
		RuleID:    res.RuleID,
		RuleIndex: res.RuleIndex,
		Level:     "warning",
		Message:   Text{Text: res.RuleName},
		Locations: []Location{{PhysicalLocation: PhysicalLocation{
			ArtifactLocation: ArtifactLocation{URI: fileURI(path)},
			Region:           region,
		}}},
	})
}

// Write encodes the report as indented JSON.
func (r *Report) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// position converts a byte offset into a 1-based line and column.
func position(content []byte, off int) (line, col int) {
	off = min(max(off, 0), len(content))
	lineStart := bytes.LastIndexByte(content[:off], '\n') + 1
	return bytes.Count(content[:lineStart], []byte{'\n'}) + 1, off - lineStart + 1
}

// fileURI keeps relative paths relative and turns absolute ones into file
// URIs.
func fileURI(path string) string {
	path = filepath.ToSlash(path)
	if !filepath.IsAbs(filepath.FromSlash(path)) {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "file://" + path
}
