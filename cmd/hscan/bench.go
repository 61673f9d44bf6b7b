//go:build cgo

package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
)

var (
	benchExprs      []string
	benchFile       string
	benchWorkers    int
	benchIterations int
)

var benchCmd = &cobra.Command{
	Use:   "bench [flags] CORPUS...",
	Short: "Measure block scan throughput",
	Long: `Compile the patterns once, then scan every corpus file --iterations times on
each of --workers goroutines, each with its own scratch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBench,
}

func init() {
	benchCmd.Flags().StringArrayVarP(&benchExprs, "regexp", "e", nil, "Pattern to benchmark (repeatable)")
	benchCmd.Flags().StringVarP(&benchFile, "file", "f", "", "Read id:/expr/flags patterns from file")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 1, "Concurrent scanners")
	benchCmd.Flags().IntVar(&benchIterations, "iterations", 10, "Passes over the corpus per worker")
}

type benchResult struct {
	compile time.Duration
	scan    time.Duration
	bytes   int64
	matches int64
}

func (r benchResult) throughput() float64 {
	if r.scan <= 0 {
		return 0
	}
	return float64(r.bytes) / r.scan.Seconds() / (1 << 20)
}

func runBench(cmd *cobra.Command, args []string) error {
	ps := &patternSet{exprs: benchExprs, file: benchFile}
	if err := ps.load(); err != nil {
		return err
	}
	corpus := make([][]byte, len(args))
	for i, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		corpus[i] = data
	}

	res, err := bench(ps, corpus, max(benchWorkers, 1), max(benchIterations, 1))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "patterns:   %d\n", ps.count())
	fmt.Fprintf(out, "compile:    %s\n", res.compile)
	fmt.Fprintf(out, "scanned:    %d bytes in %s\n", res.bytes, res.scan)
	fmt.Fprintf(out, "throughput: %.2f MiB/s\n", res.throughput())
	fmt.Fprintf(out, "matches:    %d\n", res.matches)
	return nil
}

func bench(ps *patternSet, corpus [][]byte, workers, iterations int) (benchResult, error) {
	var res benchResult
	start := time.Now()
	db, err := ps.compile(hyperscan.BlockMode)
	if err != nil {
		return res, fmt.Errorf("compiling patterns: %w", err)
	}
	defer db.Close()
	res.compile = time.Since(start)

	block := db.(*hyperscan.BlockDatabase)
	proto, err := hyperscan.NewScratch(block)
	if err != nil {
		return res, err
	}
	defer proto.Close()

	scratches := make([]*hyperscan.Scratch, workers)
	for i := range scratches {
		if scratches[i], err = proto.Clone(); err != nil {
			for _, s := range scratches[:i] {
				s.Close()
			}
			return res, err
		}
	}

	var matches, scanned atomic.Int64
	var g errgroup.Group
	start = time.Now()
	for _, s := range scratches {
		g.Go(func() error {
			defer s.Close()
			var n int64
			h := func(hyperscan.Match) hyperscan.Decision {
				n++
				return hyperscan.Continue
			}
			for range iterations {
				for _, data := range corpus {
					if err := block.Scan(data, s, h); err != nil {
						return err
					}
					scanned.Add(int64(len(data)))
				}
			}
			matches.Add(n)
			return nil
		})
	}
	err = g.Wait()
	res.scan = time.Since(start)
	res.bytes = scanned.Load()
	res.matches = matches.Load()
	return res, err
}
