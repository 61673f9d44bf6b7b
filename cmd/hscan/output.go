package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// styles holds the color formatters for match output.
type styles struct {
	path   *color.Color
	lineNo *color.Color
	match  *color.Color
	id     *color.Color
}

func newStyles(enabled bool) *styles {
	s := &styles{
		path:   color.New(color.FgMagenta),
		lineNo: color.New(color.FgGreen),
		match:  color.New(color.Bold, color.FgRed),
		id:     color.New(color.FgHiBlue),
	}
	for _, c := range []*color.Color{s.path, s.lineNo, s.match, s.id} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// stylesFor resolves --color against w: auto colors only terminals, and
// only when NO_COLOR is unset.
func stylesFor(mode string, w io.Writer) (*styles, error) {
	switch mode {
	case "always":
		return newStyles(true), nil
	case "never":
		return newStyles(false), nil
	case "auto":
		f, ok := w.(*os.File)
		tty := ok && term.IsTerminal(int(f.Fd())) && os.Getenv("NO_COLOR") == ""
		return newStyles(tty), nil
	}
	return nil, fmt.Errorf("invalid --color value %q (want auto, always or never)", mode)
}

// span is a half-open byte range.
type span struct{ from, to int }

// lineBounds returns the start and end of the line containing off, and its
// 1-based number.
func lineBounds(content []byte, off int) (start, end, number int) {
	start = bytes.LastIndexByte(content[:off], '\n') + 1
	end = len(content)
	if i := bytes.IndexByte(content[off:], '\n'); i >= 0 {
		end = off + i
	}
	return start, end, bytes.Count(content[:start], []byte{'\n'}) + 1
}

// highlight renders line with the spans, given relative to the line,
// colored. Spans must be sorted and may overlap.
func (s *styles) highlight(line []byte, spans []span) string {
	var b bytes.Buffer
	pos := 0
	for _, sp := range spans {
		from, to := max(sp.from, pos), min(sp.to, len(line))
		if from >= to {
			continue
		}
		b.Write(line[pos:from])
		b.WriteString(s.match.Sprint(string(line[from:to])))
		pos = to
	}
	b.Write(line[pos:])
	return b.String()
}
