package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/hyperscan/pkg/chimera"
	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
)

var (
	version = "dev"
	commit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the version of hscan and of the linked engines",
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "hscan v%s\n", version)
	fmt.Fprintf(out, "Commit: %s\n", commit)
	fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
	fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if !hyperscan.Available() {
		fmt.Fprintln(out, "Engine: not available (built without cgo)")
		return nil
	}
	fmt.Fprintf(out, "Engine: %s\n", engineVersion())
	fmt.Fprintf(out, "Platform: %s\n", hostPlatform())
	if chimera.Available() {
		fmt.Fprintf(out, "Chimera: %s\n", chimeraVersion())
	} else {
		fmt.Fprintln(out, "Chimera: not available")
	}
	return nil
}
