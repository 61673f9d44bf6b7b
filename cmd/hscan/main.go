// Command hscan scans files and streams with the Hyperscan engine.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
