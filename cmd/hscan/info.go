//go:build cgo

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/hyperscan/pkg/dbcache"
	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
)

var (
	infoExprs []string
	infoCache string
)

var infoCmd = &cobra.Command{
	Use:   "info [flags] [DBFILE...]",
	Short: "Describe serialized databases, expressions or a cache",
	Long: `Print the engine version, features, mode and deserialized size of each
serialized database. With -e, analyse expressions instead; with --cache, list
the entries of a database cache.`,
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().StringArrayVarP(&infoExprs, "regexp", "e", nil, "Expression (id:/expr/flags) to analyse (repeatable)")
	infoCmd.Flags().StringVar(&infoCache, "cache", "", "List the entries of this database cache")
}

func runInfo(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		info, err := hyperscan.SerializedInfo(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		size, err := hyperscan.SerializedSize(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(w, "%s\tversion %s\tmode %s\tfeatures %s\t%d bytes\n", path, info.Version, info.Mode, info.Features, size)
	}

	for _, expr := range infoExprs {
		p, err := hyperscan.ParsePattern(expr)
		if err != nil {
			return err
		}
		ei, err := p.Info()
		if err != nil {
			return fmt.Errorf("%s: %w", expr, err)
		}
		maxWidth := "unbounded"
		if ei.MaxWidth != hyperscan.UnboundedMaxWidth {
			maxWidth = fmt.Sprint(ei.MaxWidth)
		}
		fmt.Fprintf(w, "%s\twidth %d..%s\tunordered %t\teod %t\teod-only %t\n",
			p, ei.MinWidth, maxWidth, ei.UnorderedMatches, ei.MatchesAtEOD, ei.MatchesOnlyAtEOD)
	}

	if infoCache != "" {
		store, err := dbcache.NewSQLite(infoCache)
		if err != nil {
			return err
		}
		defer store.Close()
		entries, err := store.List()
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d bytes\t%s\n", e.Key[:16], e.Info, e.Size, e.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}
