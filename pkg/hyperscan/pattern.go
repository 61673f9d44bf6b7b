package hyperscan

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Ext holds the extended parameters of an expression. Only the fields
// whose bit is set in Flags are passed to the compiler.
type Ext struct {
	Flags           ExtFlag
	MinOffset       uint64
	MaxOffset       uint64
	MinLength       uint64
	EditDistance    uint
	HammingDistance uint
}

// WithMinOffset sets the minimum end offset at which the expression may match.
func (e Ext) WithMinOffset(n uint64) Ext {
	e.Flags |= ExtMinOffset
	e.MinOffset = n
	return e
}

// WithMaxOffset sets the maximum end offset at which the expression may match.
func (e Ext) WithMaxOffset(n uint64) Ext {
	e.Flags |= ExtMaxOffset
	e.MaxOffset = n
	return e
}

// WithMinLength sets the minimum match length.
func (e Ext) WithMinLength(n uint64) Ext {
	e.Flags |= ExtMinLength
	e.MinLength = n
	return e
}

// WithEditDistance allows approximate matches within n edits.
func (e Ext) WithEditDistance(n uint) Ext {
	e.Flags |= ExtEditDistance
	e.EditDistance = n
	return e
}

// WithHammingDistance allows approximate matches within n substitutions.
func (e Ext) WithHammingDistance(n uint) Ext {
	e.Flags |= ExtHammingDistance
	e.HammingDistance = n
	return e
}

var extKeys = []struct {
	name string
	flag ExtFlag
}{
	{"min_offset", ExtMinOffset},
	{"max_offset", ExtMaxOffset},
	{"min_length", ExtMinLength},
	{"edit_distance", ExtEditDistance},
	{"hamming_distance", ExtHammingDistance},
}

func (e Ext) value(flag ExtFlag) uint64 {
	switch flag {
	case ExtMinOffset:
		return e.MinOffset
	case ExtMaxOffset:
		return e.MaxOffset
	case ExtMinLength:
		return e.MinLength
	case ExtEditDistance:
		return uint64(e.EditDistance)
	case ExtHammingDistance:
		return uint64(e.HammingDistance)
	}
	return 0
}

func (e Ext) String() string {
	var parts []string
	for _, k := range extKeys {
		if e.Flags&k.flag != 0 {
			parts = append(parts, k.name+"="+strconv.FormatUint(e.value(k.flag), 10))
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// ParseExt parses the "{key=value,...}" form produced by Ext.String.
func ParseExt(s string) (Ext, error) {
	var ext Ext
	body, ok := strings.CutPrefix(s, "{")
	if ok {
		body, ok = strings.CutSuffix(body, "}")
	}
	if !ok {
		return ext, fmt.Errorf("invalid expression extension %q", s)
	}
	if strings.TrimSpace(body) == "" {
		return ext, nil
	}
	for _, kv := range strings.Split(body, ",") {
		key, val, found := strings.Cut(strings.TrimSpace(kv), "=")
		if !found {
			return ext, fmt.Errorf("invalid expression extension %q", kv)
		}
		n, err := strconv.ParseUint(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return ext, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		switch strings.TrimSpace(key) {
		case "min_offset":
			ext = ext.WithMinOffset(n)
		case "max_offset":
			ext = ext.WithMaxOffset(n)
		case "min_length":
			ext = ext.WithMinLength(n)
		case "edit_distance":
			ext = ext.WithEditDistance(uint(n))
		case "hamming_distance":
			ext = ext.WithHammingDistance(uint(n))
		default:
			return ext, fmt.Errorf("unknown expression extension %q", key)
		}
	}
	return ext, nil
}

// Pattern is a regular expression plus the flags and id it is compiled with.
type Pattern struct {
	Expression string
	Flags      Flag
	ID         int
	Ext        *Ext
	// SomHorizon requests a stream state horizon when the pattern uses
	// SomLeftMost in stream mode. Zero selects the medium horizon.
	SomHorizon ModeFlag
}

// NewPattern returns a pattern with id 0.
func NewPattern(expr string, flags Flag) *Pattern {
	return &Pattern{Expression: expr, Flags: flags}
}

// WithExt attaches extended parameters and returns the pattern.
func (p *Pattern) WithExt(ext Ext) *Pattern {
	p.Ext = &ext
	return p
}

func (p *Pattern) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(p.ID))
	b.WriteString(":/")
	b.WriteString(p.Expression)
	b.WriteByte('/')
	b.WriteString(p.Flags.String())
	if p.Ext != nil && p.Ext.Flags != 0 {
		b.WriteString(p.Ext.String())
	}
	return b.String()
}

// ParsePattern parses "id:/expression/flags{ext}". The id, the slashes, the
// flags and the extension block are all optional; text that is not
// delimited by slashes is taken verbatim as the expression.
func ParsePattern(s string) (*Pattern, error) {
	id, expr, err := splitID(s)
	if err != nil {
		return nil, err
	}
	p := &Pattern{ID: id, Expression: expr}

	if !strings.HasPrefix(expr, "/") {
		return p, nil
	}
	end := strings.LastIndexByte(expr, '/')
	if end <= 0 {
		return p, nil
	}
	tail := expr[end+1:]
	if i := strings.IndexByte(tail, '{'); i >= 0 {
		ext, err := ParseExt(tail[i:])
		if err != nil {
			return nil, err
		}
		p.Ext = &ext
		tail = tail[:i]
	}
	if p.Flags, err = ParseFlags(tail); err != nil {
		return nil, err
	}
	p.Expression = expr[1:end]
	return p, nil
}

// splitID separates a leading decimal "id:" prefix.
func splitID(s string) (int, string, error) {
	i := strings.IndexByte(s, ':')
	if i <= 0 {
		return 0, s, nil
	}
	prefix := s[:i]
	for _, c := range prefix {
		if c < '0' || c > '9' {
			return 0, s, nil
		}
	}
	id, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", fmt.Errorf("invalid pattern id %q: %w", prefix, err)
	}
	return id, s[i+1:], nil
}

// ParsePatterns reads one pattern per line. Blank lines and lines starting
// with '#' are skipped.
func ParsePatterns(r io.Reader) ([]*Pattern, error) {
	var patterns []*Pattern
	err := eachLine(r, func(n int, line string) error {
		p, err := ParsePattern(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		patterns = append(patterns, p)
		return nil
	})
	return patterns, err
}

func eachLine(r io.Reader, fn func(n int, line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading patterns: %w", err)
	}
	return nil
}

// Literal is a pure literal expression. It may contain any byte, including NUL.
type Literal struct {
	Expression string
	Flags      Flag
	ID         int
	SomHorizon ModeFlag
}

// NewLiteral returns a literal with id 0.
func NewLiteral(expr string, flags Flag) *Literal {
	return &Literal{Expression: expr, Flags: flags}
}

// literalFlags are the only flags the literal compiler accepts.
const literalFlags = Caseless | MultiLine | SingleMatch | SomLeftMost

func (l *Literal) String() string {
	return strconv.Itoa(l.ID) + ":/" + l.Expression + "/" + l.Flags.String()
}

// ParseLiteral parses "id:/literal/flags" with the same rules as ParsePattern.
// Only the i, m, H and L flags are accepted.
func ParseLiteral(s string) (*Literal, error) {
	id, expr, err := splitID(s)
	if err != nil {
		return nil, err
	}
	l := &Literal{ID: id, Expression: expr}
	if end := strings.LastIndexByte(expr, '/'); strings.HasPrefix(expr, "/") && end > 0 {
		flags, err := ParseFlags(expr[end+1:])
		if err != nil {
			return nil, err
		}
		if flags&^literalFlags != 0 {
			return nil, fmt.Errorf("flags %q not supported for literals", (flags &^ literalFlags).String())
		}
		l.Expression = expr[1:end]
		l.Flags = flags
	}
	return l, nil
}

// ParseLiterals reads one literal per line, skipping blank and '#' lines.
func ParseLiterals(r io.Reader) ([]*Literal, error) {
	var literals []*Literal
	err := eachLine(r, func(n int, line string) error {
		l, err := ParseLiteral(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		literals = append(literals, l)
		return nil
	})
	return literals, err
}
