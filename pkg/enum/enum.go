// Package enum finds the files a command should scan.
package enum

import "context"

// Enumerator yields file contents to scan. The callback may run on several
// goroutines at once.
type Enumerator interface {
	Enumerate(ctx context.Context, callback func(path string, content []byte) error) error
}

// Config for enumeration.
type Config struct {
	// Root is a directory to walk or a single file.
	Root string

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// IncludeBinary also yields files that contain NUL bytes.
	IncludeBinary bool

	// NoIgnore disables .gitignore handling.
	NoIgnore bool

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// Workers is the number of parallel readers; 0 means one per CPU.
	Workers int
}
