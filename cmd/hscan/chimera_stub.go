//go:build !(cgo && chimera)

package main

func chimeraVersion() string { return "" }
