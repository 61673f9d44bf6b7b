//go:build cgo

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
)

var (
	streamExprs      []string
	streamFile       string
	streamChunk      int
	streamCheckpoint int
	streamSom        bool
)

var streamCmd = &cobra.Command{
	Use:   "stream [flags] FILE",
	Short: "Scan a file or stdin as a stream of chunks",
	Long: `Scan FILE ("-" for stdin) in chunks through one stream, so matches spanning
chunk boundaries are found. With --checkpoint N the stream state is
compressed and restored every N chunks.`,
	Args: cobra.ExactArgs(1),
	RunE: runStream,
}

func init() {
	streamCmd.Flags().StringArrayVarP(&streamExprs, "regexp", "e", nil, "Pattern to search for (repeatable)")
	streamCmd.Flags().StringVarP(&streamFile, "file", "f", "", "Read id:/expr/flags patterns from file")
	streamCmd.Flags().IntVar(&streamChunk, "chunk", 4096, "Chunk size in bytes")
	streamCmd.Flags().IntVar(&streamCheckpoint, "checkpoint", 0, "Compress and restore the stream every N chunks (0 = never)")
	streamCmd.Flags().BoolVar(&streamSom, "som", false, "Report start offsets")
}

// streamStats summarizes a streaming scan.
type streamStats struct {
	bytes       int64
	chunks      int
	checkpoints int
	matches     int
}

func runStream(cmd *cobra.Command, args []string) error {
	if streamChunk <= 0 {
		return fmt.Errorf("invalid --chunk %d", streamChunk)
	}
	var flags hyperscan.Flag
	if streamSom {
		flags = hyperscan.SomLeftMost
	}
	ps := &patternSet{exprs: streamExprs, file: streamFile, flags: flags}
	if err := ps.load(); err != nil {
		return err
	}
	db, err := ps.compile(hyperscan.StreamMode)
	if err != nil {
		return fmt.Errorf("compiling patterns: %w", err)
	}
	defer db.Close()

	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	sty, err := stylesFor(colorMode, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	var stats streamStats
	stats, err = scanStream(db.(*hyperscan.StreamDatabase), r, streamChunk, streamCheckpoint, func(m hyperscan.Match) {
		if streamSom {
			fmt.Fprintf(out, "%s %d-%d\n", sty.id.Sprintf("id=%d", m.ID), m.From, m.To)
		} else {
			fmt.Fprintf(out, "%s %d\n", sty.id.Sprintf("id=%d", m.ID), m.To)
		}
	})
	if err != nil {
		return err
	}
	slog.Info("stream complete",
		"bytes", stats.bytes, "chunks", stats.chunks,
		"checkpoints", stats.checkpoints, "matches", stats.matches)
	return nil
}

// scanStream feeds r through a stream in chunks of size bytes, calling
// report for every match including those found at end of data.
func scanStream(db *hyperscan.StreamDatabase, r io.Reader, size, checkpoint int, report func(hyperscan.Match)) (streamStats, error) {
	var stats streamStats
	s, err := hyperscan.NewScratch(db)
	if err != nil {
		return stats, err
	}
	defer s.Close()

	h := func(m hyperscan.Match) hyperscan.Decision {
		stats.matches++
		report(m)
		return hyperscan.Continue
	}

	st, err := db.Open()
	if err != nil {
		return stats, err
	}
	buf := make([]byte, size)
	var state []byte
	for {
		n, rerr := io.ReadFull(r, buf)
		if n > 0 {
			if err := st.Scan(buf[:n], s, h); err != nil {
				return stats, errors.Join(err, st.Close(nil, nil))
			}
			stats.bytes += int64(n)
			stats.chunks++
			if checkpoint > 0 && stats.chunks%checkpoint == 0 {
				if state, err = st.Compress(state); err != nil {
					return stats, errors.Join(fmt.Errorf("compressing stream: %w", err), st.Close(nil, nil))
				}
				if err := st.Close(nil, nil); err != nil {
					return stats, err
				}
				if st, err = db.Expand(state); err != nil {
					return stats, fmt.Errorf("expanding stream: %w", err)
				}
				stats.checkpoints++
			}
		}
		if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
			break
		}
		if rerr != nil {
			return stats, errors.Join(rerr, st.Close(nil, nil))
		}
	}
	return stats, st.Close(s, h)
}
