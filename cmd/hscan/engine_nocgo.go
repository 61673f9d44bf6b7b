//go:build !cgo

package main

func engineVersion() string { return "" }

func hostPlatform() string { return "" }
