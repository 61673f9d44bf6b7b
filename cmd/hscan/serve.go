package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/hyperscan/pkg/matcher"
	"github.com/praetorian-inc/hyperscan/pkg/serve"
)

var (
	serveRulesPath    string
	serveRulesInclude string
	serveRulesExclude string
	serveWorkers      int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer scan requests as NDJSON on stdin/stdout",
	Long: `Compile the rules once, print a ready message, then answer one JSON response
line per request line read from stdin:

  {"type":"scan","payload":{"source":"...","content":"..."}}
  {"type":"scan_batch","payload":{"items":[{"source":"...","content":"..."}]}}
  {"type":"stats"}
  {"type":"close"}

Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveRulesPath, "rules", "", "Path to rules file or directory (default: builtin rules)")
	serveCmd.Flags().StringVar(&serveRulesInclude, "rules-include", "", "Include rules whose ID matches these regexes (comma-separated)")
	serveCmd.Flags().StringVar(&serveRulesExclude, "rules-exclude", "", "Exclude rules whose ID matches these regexes (comma-separated)")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 0, "Parallelism of scan_batch requests (0 = one per CPU)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	rules, err := loadRules(serveRulesPath, serveRulesInclude, serveRulesExclude)
	if err != nil {
		return err
	}
	m, err := matcher.New(rules, matcher.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("creating matcher: %w", err)
	}
	defer m.Close()

	srv := serve.NewServer(m, cmd.InOrStdin(), cmd.OutOrStdout(), serveWorkers, slog.Default().With("component", "serve"))
	return srv.Run(cmdContext(cmd))
}
