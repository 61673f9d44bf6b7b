package chimera

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
)

// Flag modifies how a single PCRE expression is compiled.
type Flag uint32

const (
	Caseless        Flag = 1
	DotAll          Flag = 2
	MultiLine       Flag = 4
	SingleMatch     Flag = 8
	Utf8Mode        Flag = 32
	UnicodeProperty Flag = 64
)

const allFlags = Caseless | DotAll | MultiLine | SingleMatch | Utf8Mode | UnicodeProperty

// ParseFlags accepts the letters i, s, m, H, 8 and W.
func ParseFlags(s string) (Flag, error) {
	f, err := hyperscan.ParseFlags(s)
	if err != nil {
		return 0, err
	}
	if extra := Flag(f) &^ allFlags; extra != 0 {
		return 0, fmt.Errorf("flags %q not supported by chimera", hyperscan.Flag(extra).String())
	}
	return Flag(f), nil
}

func (f Flag) String() string { return hyperscan.Flag(f).String() }

// Mode selects whether capture groups are reported.
type Mode uint32

const (
	NoGroups Mode = 0
	Groups   Mode = 1 << 20
)

func (m Mode) String() string {
	if m == Groups {
		return "groups"
	}
	return "nogroups"
}

// Pattern is a PCRE expression with its flags and id.
type Pattern struct {
	Expression string
	Flags      Flag
	ID         int
}

func NewPattern(expr string, flags Flag) *Pattern {
	return &Pattern{Expression: expr, Flags: flags}
}

func (p *Pattern) String() string {
	return strconv.Itoa(p.ID) + ":/" + p.Expression + "/" + p.Flags.String()
}

// ParsePattern parses "id:/expression/flags" with the same rules as the
// main engine, minus expression extensions.
func ParsePattern(s string) (*Pattern, error) {
	hp, err := hyperscan.ParsePattern(s)
	if err != nil {
		return nil, err
	}
	if hp.Ext != nil {
		return nil, fmt.Errorf("expression extensions not supported by chimera: %q", s)
	}
	if extra := Flag(hp.Flags) &^ allFlags; extra != 0 {
		return nil, fmt.Errorf("flags %q not supported by chimera", hyperscan.Flag(extra).String())
	}
	return &Pattern{Expression: hp.Expression, Flags: Flag(hp.Flags), ID: hp.ID}, nil
}

// ParsePatterns reads one pattern per line, skipping blank and '#' lines.
func ParsePatterns(r io.Reader) ([]*Pattern, error) {
	hps, err := hyperscan.ParsePatterns(r)
	if err != nil {
		return nil, err
	}
	patterns := make([]*Pattern, 0, len(hps))
	for _, hp := range hps {
		p, err := ParsePattern(hp.String())
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// ParseMode accepts "groups" and "nogroups".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "groups":
		return Groups, nil
	case "nogroups", "":
		return NoGroups, nil
	}
	return 0, fmt.Errorf("unknown chimera mode %q", s)
}
