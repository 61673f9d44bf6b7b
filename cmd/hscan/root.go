package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/hyperscan/internal/logging"
	"github.com/praetorian-inc/hyperscan/pkg/chimera"
	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
)

var (
	verbose   bool
	quiet     bool
	colorMode string
)

var rootCmd = &cobra.Command{
	Use:   "hscan",
	Short: "hscan - high-performance multi-pattern scanning",
	Long: `hscan compiles sets of regular expressions into a single Hyperscan database
and scans files, streams and corpora with it. Compiled databases can be
serialized and cached between runs.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger := logging.Init("hscan", logging.Options{
			Verbose: verbose,
			Quiet:   quiet,
			Output:  cmd.ErrOrStderr(),
		})
		hyperscan.SetLogger(logger)
		chimera.SetLogger(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "Colorize output: auto, always, never")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(rulesCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// cmdContext returns the command's context, or Background when the command
// runs outside Execute.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
