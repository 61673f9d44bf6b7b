//go:build cgo && chimera

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/hyperscan/pkg/chimera"
)

var (
	capturesFlags      string
	capturesMatchLimit uint64
)

var capturesCmd = &cobra.Command{
	Use:   "captures [flags] PATTERN FILE...",
	Short: "Print matches with their capture groups (PCRE semantics)",
	Long: `Scan files with the Chimera engine, which supports full PCRE syntax including
backreferences and lookaround, and print every match with its capture groups.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCaptures,
}

func init() {
	capturesCmd.Flags().StringVar(&capturesFlags, "flags", "", "Pattern flags (i, s, m, H, 8, W)")
	capturesCmd.Flags().Uint64Var(&capturesMatchLimit, "match-limit", 0, "PCRE match limit (0 = default)")
}

func runCaptures(cmd *cobra.Command, args []string) error {
	flags, err := chimera.ParseFlags(capturesFlags)
	if err != nil {
		return err
	}
	var opts []chimera.CompileOption
	if capturesMatchLimit > 0 {
		opts = append(opts, chimera.WithMatchLimit(capturesMatchLimit))
	}
	db, err := chimera.Compile([]*chimera.Pattern{chimera.NewPattern(args[0], flags)}, chimera.Groups, opts...)
	if err != nil {
		return err
	}
	defer db.Close()
	s, err := chimera.NewScratch(db)
	if err != nil {
		return err
	}
	defer s.Close()

	sty, err := stylesFor(colorMode, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, path := range args[1:] {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		err = db.Scan(data, s, func(m chimera.Match) chimera.Decision {
			writeCapture(out, sty, path, data, m)
			return chimera.Continue
		}, nil)
		var limit *chimera.LimitError
		if errors.As(err, &limit) {
			slog.Warn("pattern skipped", "path", path, "error", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func writeCapture(w io.Writer, sty *styles, path string, data []byte, m chimera.Match) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d-%d: %s", sty.path.Sprint(path), m.From, m.To, sty.match.Sprint(string(data[m.From:m.To])))
	for i, c := range m.Captures {
		if i == 0 {
			continue
		}
		if !c.Active {
			fmt.Fprintf(&b, " %s=<unset>", sty.id.Sprintf("$%d", i))
			continue
		}
		fmt.Fprintf(&b, " %s=%q", sty.id.Sprintf("$%d", i), data[c.From:c.To])
	}
	b.WriteByte('\n')
	io.WriteString(w, b.String())
}
