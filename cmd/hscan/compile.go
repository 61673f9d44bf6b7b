//go:build cgo

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/hyperscan/pkg/dbcache"
	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
)

var (
	compileExprs   []string
	compileFile    string
	compileRules   string
	compileLiteral bool
	compileMode    string
	compileSom     bool
	compileOutput  string
	compileCache   string
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags]",
	Short: "Compile patterns into a serialized database",
	Long: `Compile patterns, a pattern file or YAML rules into a database and write its
serialized form. With --cache the database is looked up in, or added to, a
SQLite cache of compiled databases.`,
	Args: cobra.NoArgs,
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringArrayVarP(&compileExprs, "regexp", "e", nil, "Pattern to compile (repeatable)")
	compileCmd.Flags().StringVarP(&compileFile, "file", "f", "", "Read id:/expr/flags patterns from file")
	compileCmd.Flags().StringVar(&compileRules, "rules", "", "Compile a YAML rules file or directory")
	compileCmd.Flags().BoolVarP(&compileLiteral, "literal", "F", false, "Treat patterns as literal strings")
	compileCmd.Flags().StringVar(&compileMode, "mode", "block", "Database mode: block, stream, vectored")
	compileCmd.Flags().BoolVar(&compileSom, "som", false, "Track start of match")
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "Write the serialized database here")
	compileCmd.Flags().StringVar(&compileCache, "cache", "", "Database cache path (\":memory:\" for none)")
}

func runCompile(cmd *cobra.Command, args []string) error {
	mode, err := hyperscan.ParseMode(compileMode)
	if err != nil {
		return err
	}
	var flags hyperscan.Flag
	if compileSom {
		flags = hyperscan.SomLeftMost
	}
	ps := &patternSet{exprs: compileExprs, file: compileFile, rules: compileRules, literal: compileLiteral, flags: flags}
	if err := ps.load(); err != nil {
		return err
	}

	var db hyperscan.Database
	cached := false
	if compileCache != "" {
		if len(ps.literals) > 0 {
			return errors.New("--cache does not support literals")
		}
		store, err := dbcache.New(dbcache.Config{Path: compileCache})
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer store.Close()
		db, cached, err = dbcache.LoadOrCompile(store, ps.patterns, mode, nil)
		if err != nil {
			return err
		}
	} else if db, err = ps.compile(mode); err != nil {
		return err
	}
	defer db.Close()

	size, err := db.Size()
	if err != nil {
		return err
	}
	info, err := db.Info()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d patterns, %s, %d bytes (cached: %t)\n", ps.count(), info, size, cached)

	if compileOutput == "" {
		return nil
	}
	data, err := db.Serialize()
	if err != nil {
		return err
	}
	if err := os.WriteFile(compileOutput, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s (%d bytes)\n", compileOutput, len(data))
	return nil
}
