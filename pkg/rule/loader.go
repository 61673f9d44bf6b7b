package rule

import (
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
	"gopkg.in/yaml.v3"
)

// Loader reads rule, pattern and literal files from a filesystem.
type Loader struct {
	fs fs.FS
}

// NewLoader returns a loader over the built-in sample rules.
func NewLoader() *Loader {
	return &Loader{fs: builtinRulesFS}
}

// NewLoaderWithFS returns a loader over fsys, typically os.DirFS.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{fs: fsys}
}

// LoadRules parses every rule of a YAML document.
func (l *Loader) LoadRules(data []byte) ([]*Rule, error) {
	var doc yamlRulesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, errors.New("no rules found in YAML")
	}
	rules := make([]*Rule, len(doc.Rules))
	for i, yr := range doc.Rules {
		rules[i] = convertYAMLRule(yr)
	}
	return rules, nil
}

// LoadRule parses a YAML document holding exactly one rule.
func (l *Loader) LoadRule(data []byte) (*Rule, error) {
	rules, err := l.LoadRules(data)
	if err != nil {
		return nil, err
	}
	if len(rules) > 1 {
		return nil, fmt.Errorf("expected single rule, found %d", len(rules))
	}
	return rules[0], nil
}

// LoadRuleFile loads all rules of one YAML file.
func (l *Loader) LoadRuleFile(name string) ([]*Rule, error) {
	data, err := fs.ReadFile(l.fs, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", name, err)
	}
	rules, err := l.LoadRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return rules, nil
}

// LoadDir loads every .yml and .yaml file below dir, in lexical order.
func (l *Loader) LoadDir(dir string) ([]*Rule, error) {
	var rules []*Rule
	err := fs.WalkDir(l.fs, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext := path.Ext(p); ext != ".yml" && ext != ".yaml" {
			return nil
		}
		rs, err := l.LoadRuleFile(p)
		if err != nil {
			return err
		}
		rules = append(rules, rs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// LoadBuiltinRules loads the embedded sample rules.
func LoadBuiltinRules() ([]*Rule, error) {
	return NewLoader().LoadDir("rules")
}

// LoadPatternFile reads an "id:/expr/flags" pattern list.
func (l *Loader) LoadPatternFile(name string) ([]*hyperscan.Pattern, error) {
	f, err := l.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()
	patterns, err := hyperscan.ParsePatterns(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return patterns, nil
}

// LoadLiteralFile reads an "id:/literal/flags" list.
func (l *Loader) LoadLiteralFile(name string) ([]*hyperscan.Literal, error) {
	f, err := l.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()
	literals, err := hyperscan.ParseLiterals(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return literals, nil
}

func convertYAMLRule(yr yamlRule) *Rule {
	r := &Rule{
		ID:               yr.ID,
		Name:             yr.Name,
		Pattern:          yr.Pattern,
		Flags:            yr.Flags,
		Keywords:         yr.Keywords,
		Description:      yr.Description,
		Examples:         yr.Examples,
		NegativeExamples: yr.NegativeExamples,
		Categories:       yr.Categories,
	}
	if yr.Ext != nil {
		r.Ext = yr.Ext.convert()
	}
	r.StructuralID = r.ComputeStructuralID()
	return r
}

func (y *yamlExt) convert() *hyperscan.Ext {
	var e hyperscan.Ext
	if y.MinOffset != nil {
		e = e.WithMinOffset(*y.MinOffset)
	}
	if y.MaxOffset != nil {
		e = e.WithMaxOffset(*y.MaxOffset)
	}
	if y.MinLength != nil {
		e = e.WithMinLength(*y.MinLength)
	}
	if y.EditDistance != nil {
		e = e.WithEditDistance(*y.EditDistance)
	}
	if y.HammingDistance != nil {
		e = e.WithHammingDistance(*y.HammingDistance)
	}
	if e.Flags == 0 {
		return nil
	}
	return &e
}
