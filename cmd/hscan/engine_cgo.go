//go:build cgo

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
	"github.com/praetorian-inc/hyperscan/pkg/rule"
)

func init() {
	rootCmd.AddCommand(grepCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(benchCmd)
}

func engineVersion() string { return hyperscan.Version() }

func hostPlatform() string {
	p, err := hyperscan.HostPlatform()
	if err != nil {
		return "unknown: " + err.Error()
	}
	if err := hyperscan.ValidPlatform(); err != nil {
		return p.String() + " (unsupported: " + err.Error() + ")"
	}
	return p.String()
}

// loadPatternFile reads an "id:/expr/flags" list from the filesystem.
func loadPatternFile(path string) ([]*hyperscan.Pattern, error) {
	return rule.NewLoaderWithFS(os.DirFS(filepath.Dir(path))).LoadPatternFile(filepath.Base(path))
}

func loadLiteralFile(path string) ([]*hyperscan.Literal, error) {
	return rule.NewLoaderWithFS(os.DirFS(filepath.Dir(path))).LoadLiteralFile(filepath.Base(path))
}

// patternSet is the input of one compile: expressions from the command
// line, a pattern or literal file, or YAML rules.
type patternSet struct {
	exprs    []string
	file     string
	rules    string
	literal  bool
	flags    hyperscan.Flag
	patterns []*hyperscan.Pattern
	literals []*hyperscan.Literal
}

// load fills patterns or literals. Command line expressions get ids by
// position; files keep their own ids.
func (ps *patternSet) load() error {
	switch {
	case ps.rules != "":
		rules, err := loadRules(ps.rules, "", "")
		if err != nil {
			return err
		}
		if ps.patterns, err = rule.Patterns(rules); err != nil {
			return err
		}
	case ps.file != "" && ps.literal:
		lits, err := loadLiteralFile(ps.file)
		if err != nil {
			return err
		}
		ps.literals = lits
	case ps.file != "":
		pats, err := loadPatternFile(ps.file)
		if err != nil {
			return err
		}
		ps.patterns = pats
	case ps.literal:
		for i, e := range ps.exprs {
			ps.literals = append(ps.literals, &hyperscan.Literal{Expression: e, ID: i})
		}
	default:
		for i, e := range ps.exprs {
			ps.patterns = append(ps.patterns, &hyperscan.Pattern{Expression: e, ID: i})
		}
	}
	if len(ps.patterns) == 0 && len(ps.literals) == 0 {
		return fmt.Errorf("no patterns given")
	}
	for _, p := range ps.patterns {
		p.Flags |= ps.flags
	}
	for _, l := range ps.literals {
		l.Flags |= ps.flags
	}
	return nil
}

func (ps *patternSet) count() int { return len(ps.patterns) + len(ps.literals) }

func (ps *patternSet) compile(mode hyperscan.ModeFlag) (hyperscan.Database, error) {
	b := hyperscan.DatabaseBuilder{Patterns: ps.patterns, Literals: ps.literals, Mode: mode}
	return b.Build()
}

// scratchPool hands out per-goroutine clones of one prototype scratch.
type scratchPool struct {
	proto *hyperscan.Scratch
	pool  sync.Pool
}

func newScratchPool(db hyperscan.Database) (*scratchPool, error) {
	proto, err := hyperscan.NewScratch(db)
	if err != nil {
		return nil, err
	}
	return &scratchPool{proto: proto}, nil
}

func (p *scratchPool) get() (*hyperscan.Scratch, error) {
	if s, ok := p.pool.Get().(*hyperscan.Scratch); ok {
		return s, nil
	}
	return p.proto.Clone()
}

func (p *scratchPool) put(s *hyperscan.Scratch) { p.pool.Put(s) }

func (p *scratchPool) close() error { return p.proto.Close() }
