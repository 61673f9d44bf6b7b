package rule

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
)

// Rule is a named expression plus the metadata needed to compile and
// prefilter it.
type Rule struct {
	ID               string // e.g. "net.ipv4"
	Name             string
	Pattern          string
	Flags            string // flag letters, e.g. "is"
	Keywords         []string
	Ext              *hyperscan.Ext
	Description      string
	Examples         []string
	NegativeExamples []string
	Categories       []string
	StructuralID     string // SHA-1 of pattern and flags (computed)
}

var namedGroupRe = regexp.MustCompile(`\(\?P?<[A-Za-z_][A-Za-z0-9_]*>`)

// ComputeStructuralID hashes the normalized pattern and flags. Named groups
// hash like unnamed ones so renaming a group keeps the id.
func (r *Rule) ComputeStructuralID() string {
	normalized := namedGroupRe.ReplaceAllString(r.Pattern, "(")
	h := sha1.New()
	h.Write([]byte(normalized))
	h.Write([]byte{0})
	h.Write([]byte(r.Flags))
	return hex.EncodeToString(h.Sum(nil))
}

// Compile converts the rule into an engine pattern with the given id.
func (r *Rule) Compile(id int) (*hyperscan.Pattern, error) {
	flags, err := hyperscan.ParseFlags(r.Flags)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", r.ID, err)
	}
	p := &hyperscan.Pattern{Expression: r.Pattern, Flags: flags, ID: id}
	if r.Ext != nil {
		p = p.WithExt(*r.Ext)
	}
	return p, nil
}

// Patterns compiles rules into patterns whose ids are the rule indices.
func Patterns(rules []*Rule) ([]*hyperscan.Pattern, error) {
	patterns := make([]*hyperscan.Pattern, len(rules))
	for i, r := range rules {
		p, err := r.Compile(i)
		if err != nil {
			return nil, err
		}
		patterns[i] = p
	}
	return patterns, nil
}
