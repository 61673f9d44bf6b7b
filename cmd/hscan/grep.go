//go:build cgo

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/hyperscan/pkg/enum"
	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
)

var (
	grepExprs    []string
	grepFile     string
	grepLiteral  bool
	grepCaseless bool
	grepNoIgnore bool
	grepHidden   bool
	grepCount    bool
	grepOnly     bool
	grepWorkers  int
	grepMaxSize  int64
)

var grepCmd = &cobra.Command{
	Use:   "grep [flags] PATTERN [PATH...]",
	Short: "Search files for patterns",
	Long: `Search files for lines matching any of the given patterns. All patterns are
compiled into one database and every file is scanned once. Directories are
walked recursively, honouring .gitignore.`,
	RunE: runGrep,
}

func init() {
	grepCmd.Flags().StringArrayVarP(&grepExprs, "regexp", "e", nil, "Pattern to search for (repeatable)")
	grepCmd.Flags().StringVarP(&grepFile, "file", "f", "", "Read id:/expr/flags patterns from file")
	grepCmd.Flags().BoolVarP(&grepLiteral, "literal", "F", false, "Treat patterns as literal strings")
	grepCmd.Flags().BoolVarP(&grepCaseless, "caseless", "i", false, "Case-insensitive matching")
	grepCmd.Flags().BoolVar(&grepNoIgnore, "no-ignore", false, "Do not honour .gitignore")
	grepCmd.Flags().BoolVar(&grepHidden, "hidden", false, "Search hidden files and directories")
	grepCmd.Flags().BoolVarP(&grepCount, "count", "c", false, "Print the number of matching lines per file")
	grepCmd.Flags().BoolVarP(&grepOnly, "only-matching", "o", false, "Print only the matched parts")
	grepCmd.Flags().IntVar(&grepWorkers, "workers", 0, "Files scanned in parallel (0 = one per CPU)")
	grepCmd.Flags().Int64Var(&grepMaxSize, "max-file-size", 64*1024*1024, "Skip files larger than this (bytes)")
}

func runGrep(cmd *cobra.Command, args []string) error {
	exprs, paths := grepExprs, args
	if len(exprs) == 0 && grepFile == "" {
		if len(args) == 0 {
			return errors.New("no pattern given")
		}
		exprs, paths = args[:1], args[1:]
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}

	flags := hyperscan.SomLeftMost
	if grepCaseless {
		flags |= hyperscan.Caseless
	}
	ps := &patternSet{exprs: exprs, file: grepFile, literal: grepLiteral, flags: flags}
	if err := ps.load(); err != nil {
		return err
	}
	db, err := ps.compile(hyperscan.BlockMode)
	if err != nil {
		return fmt.Errorf("compiling patterns: %w", err)
	}
	defer db.Close()
	block := db.(*hyperscan.BlockDatabase)
	pool, err := newScratchPool(block)
	if err != nil {
		return err
	}
	defer pool.close()

	out := cmd.OutOrStdout()
	sty, err := stylesFor(colorMode, out)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	var files atomic.Int64
	for _, root := range paths {
		e := enum.NewFilesystemEnumerator(enum.Config{
			Root:          root,
			IncludeHidden: grepHidden,
			NoIgnore:      grepNoIgnore,
			MaxFileSize:   grepMaxSize,
			Workers:       grepWorkers,
		})
		err := e.Enumerate(cmdContext(cmd), func(path string, content []byte) error {
			spans, err := scanSpans(block, pool, content)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if len(spans) == 0 {
				return nil
			}
			files.Add(1)
			text := formatGrep(sty, path, content, spans)
			mu.Lock()
			defer mu.Unlock()
			_, err = io.WriteString(out, text)
			return err
		})
		if err != nil {
			return err
		}
	}
	slog.Debug("grep complete", "patterns", ps.count(), "matching_files", files.Load())
	return nil
}

// scanSpans returns the non-overlapping matches in content, leftmost
// longest first.
func scanSpans(db *hyperscan.BlockDatabase, pool *scratchPool, content []byte) ([]span, error) {
	s, err := pool.get()
	if err != nil {
		return nil, err
	}
	defer pool.put(s)

	var spans []span
	err = db.Scan(content, s, func(m hyperscan.Match) hyperscan.Decision {
		spans = append(spans, span{from: int(m.From), to: int(m.To)})
		return hyperscan.Continue
	})
	if err != nil {
		return nil, err
	}
	return normalizeSpans(spans), nil
}

// normalizeSpans sorts spans by start, keeps the longest span per start and
// drops spans that begin inside an earlier one.
func normalizeSpans(spans []span) []span {
	slices.SortFunc(spans, func(a, b span) int {
		if a.from != b.from {
			return a.from - b.from
		}
		return b.to - a.to
	})
	out := spans[:0]
	end := -1
	for _, sp := range spans {
		if sp.from < end || (len(out) > 0 && sp.from == out[len(out)-1].from) {
			continue
		}
		out = append(out, sp)
		end = sp.to
	}
	return out
}

// formatGrep renders the matches of one file.
func formatGrep(sty *styles, path string, content []byte, spans []span) string {
	var b strings.Builder
	prefix := sty.path.Sprint(path) + ":"
	lines := 0
	for i := 0; i < len(spans); {
		start, end, number := lineBounds(content, spans[i].from)
		j := i
		var rel []span
		for ; j < len(spans) && spans[j].from <= end; j++ {
			rel = append(rel, span{from: spans[j].from - start, to: spans[j].to - start})
		}
		lines++
		switch {
		case grepCount:
		case grepOnly:
			for _, sp := range spans[i:j] {
				fmt.Fprintf(&b, "%s%s:%s\n", prefix, sty.lineNo.Sprint(number), sty.match.Sprint(string(content[sp.from:sp.to])))
			}
		default:
			fmt.Fprintf(&b, "%s%s:%s\n", prefix, sty.lineNo.Sprint(number), sty.highlight(content[start:end], rel))
		}
		i = j
	}
	if grepCount {
		fmt.Fprintf(&b, "%s%d\n", prefix, lines)
	}
	return b.String()
}
