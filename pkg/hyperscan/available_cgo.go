//go:build cgo

package hyperscan

// Available reports whether the native engine is compiled in.
func Available() bool { return true }
