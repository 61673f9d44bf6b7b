//go:build cgo && chimera

package main

import "github.com/praetorian-inc/hyperscan/pkg/chimera"

func init() {
	rootCmd.AddCommand(capturesCmd)
}

func chimeraVersion() string { return chimera.Version() }
