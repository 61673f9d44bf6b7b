//go:build !cgo || !chimera

package chimera

// Available reports whether the chimera engine is compiled in.
func Available() bool { return false }
