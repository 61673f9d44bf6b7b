package hyperscan

import (
	"fmt"
	"strings"
)

// Flag modifies the behaviour of a single expression.
type Flag uint32

const (
	// Caseless matches case-insensitively.
	Caseless Flag = 1
	// DotAll lets "." match newlines.
	DotAll Flag = 2
	// MultiLine lets "^" and "$" match at newlines.
	MultiLine Flag = 4
	// SingleMatch reports at most one match per pattern per scan.
	SingleMatch Flag = 8
	// AllowEmpty permits patterns that can match empty input.
	AllowEmpty Flag = 16
	// Utf8Mode treats the expression and data as UTF-8.
	Utf8Mode Flag = 32
	// UnicodeProperty enables Unicode property support. Requires Utf8Mode.
	UnicodeProperty Flag = 64
	// PrefilterMode compiles an approximate version of the pattern.
	PrefilterMode Flag = 128
	// SomLeftMost reports the leftmost start of match offset.
	SomLeftMost Flag = 256
	// Combination marks a logical combination of other patterns.
	Combination Flag = 512
	// Quiet suppresses match reporting for the pattern.
	Quiet Flag = 1024
)

var flagLetters = []struct {
	flag   Flag
	letter byte
}{
	{Caseless, 'i'},
	{MultiLine, 'm'},
	{DotAll, 's'},
	{SingleMatch, 'H'},
	{AllowEmpty, 'V'},
	{Utf8Mode, '8'},
	{UnicodeProperty, 'W'},
	{PrefilterMode, 'P'},
	{SomLeftMost, 'L'},
	{Combination, 'C'},
	{Quiet, 'Q'},
}

// ParseFlags parses the single-letter flag syntax used after a /expr/ pattern.
func ParseFlags(s string) (Flag, error) {
	var flags Flag
next:
	for i := 0; i < len(s); i++ {
		for _, fl := range flagLetters {
			if s[i] == fl.letter {
				flags |= fl.flag
				continue next
			}
		}
		return 0, fmt.Errorf("invalid compile flag %q", s[i])
	}
	return flags, nil
}

func (f Flag) String() string {
	var b strings.Builder
	for _, fl := range flagLetters {
		if f&fl.flag != 0 {
			b.WriteByte(fl.letter)
		}
	}
	return b.String()
}

// ExtFlag marks which fields of an Ext are set.
type ExtFlag uint64

const (
	ExtMinOffset       ExtFlag = 1
	ExtMaxOffset       ExtFlag = 2
	ExtMinLength       ExtFlag = 4
	ExtEditDistance    ExtFlag = 8
	ExtHammingDistance ExtFlag = 16
)

// CPUFeature is a bitset of instruction set extensions the engine can target.
type CPUFeature uint64

const (
	AVX2       CPUFeature = 1 << 2
	AVX512     CPUFeature = 1 << 3
	AVX512VBMI CPUFeature = 1 << 4
)

func (c CPUFeature) String() string {
	var parts []string
	if c&AVX2 != 0 {
		parts = append(parts, "AVX2")
	}
	if c&AVX512 != 0 {
		parts = append(parts, "AVX512")
	}
	if c&AVX512VBMI != 0 {
		parts = append(parts, "AVX512VBMI")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// TuneFamily is the microarchitecture a database is tuned for.
type TuneFamily uint32

const (
	Generic TuneFamily = iota
	SandyBridge
	IvyBridge
	Haswell
	Silvermont
	Broadwell
	Skylake
	SkylakeServer
	Goldmont
	Icelake
	IcelakeServer
)

var tuneNames = [...]string{"generic", "sandybridge", "ivybridge", "haswell", "silvermont",
	"broadwell", "skylake", "skylake-server", "goldmont", "icelake", "icelake-server"}

func (t TuneFamily) String() string {
	if int(t) < len(tuneNames) {
		return tuneNames[t]
	}
	return fmt.Sprintf("tune(%d)", uint32(t))
}

// Platform describes the target a database is compiled for.
type Platform struct {
	Tune        TuneFamily
	CPUFeatures CPUFeature
}

func (p Platform) String() string {
	return fmt.Sprintf("%s/%s", p.Tune, p.CPUFeatures)
}
