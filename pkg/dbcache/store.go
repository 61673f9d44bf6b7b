// Package dbcache persists serialized databases so that processes can skip
// compilation for pattern sets they have seen before.
package dbcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("dbcache: store closed")

// Store holds serialized databases keyed by Key.
type Store interface {
	// Get returns the blob stored under key; ok is false when there is none.
	Get(key string) (blob []byte, ok bool, err error)

	// Put stores blob and its info string under key, replacing any entry.
	Put(key, info string, blob []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases the store.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the SQLite database file. ":memory:" selects MemoryStore.
	Path string
}

// New opens the store described by cfg.
func New(cfg Config) (Store, error) {
	switch cfg.Path {
	case "":
		return nil, fmt.Errorf("path is required")
	case ":memory:":
		return NewMemory(), nil
	}
	return NewSQLite(cfg.Path)
}

// Key identifies the database compiled from patterns for mode and platform.
// Pattern order matters: it fixes the ids the engine reports.
func Key(patterns []*hyperscan.Pattern, mode hyperscan.ModeFlag, platform hyperscan.Platform) string {
	h := sha256.New()
	for _, p := range patterns {
		h.Write([]byte(p.String()))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatUint(uint64(p.SomHorizon), 10)))
		h.Write([]byte{'\n'})
	}
	fmt.Fprintf(h, "mode=%d platform=%d/%d", mode, platform.Tune, platform.CPUFeatures)
	return hex.EncodeToString(h.Sum(nil))
}
