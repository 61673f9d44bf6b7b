//go:build cgo

package dbcache

import (
	"errors"
	"fmt"

	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
)

// LoadOrCompile returns the database for patterns, deserializing it from s
// when cached and compiling and storing it otherwise. A nil platform means
// the host. cached reports whether compilation was skipped. An entry that no
// longer deserializes, for example after an engine upgrade, is replaced.
func LoadOrCompile(s Store, patterns []*hyperscan.Pattern, mode hyperscan.ModeFlag, platform *hyperscan.Platform) (db hyperscan.Database, cached bool, err error) {
	target := hyperscan.Platform{}
	var opts []hyperscan.CompileOption
	if platform != nil {
		target = *platform
		opts = append(opts, hyperscan.WithPlatform(target))
	} else if target, err = hyperscan.HostPlatform(); err != nil {
		return nil, false, err
	}
	key := Key(patterns, mode, target)

	blob, ok, err := s.Get(key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		db, err := hyperscan.Deserialize(blob)
		if err == nil && db.Mode().ScanMode() == mode.ScanMode() {
			return db, true, nil
		}
		if err == nil {
			db.Close()
			err = hyperscan.ErrModeMismatch
		}
		if !errors.Is(err, hyperscan.ErrSerialization) && !errors.Is(err, hyperscan.ErrModeMismatch) {
			return nil, false, err
		}
		if err := s.Delete(key); err != nil {
			return nil, false, err
		}
	}

	db, err = hyperscan.Compile(patterns, mode, opts...)
	if err != nil {
		return nil, false, err
	}
	if err := store(s, key, db); err != nil {
		db.Close()
		return nil, false, err
	}
	return db, false, nil
}

func store(s Store, key string, db hyperscan.Database) error {
	blob, err := db.Serialize()
	if err != nil {
		return fmt.Errorf("serializing database: %w", err)
	}
	info, err := db.Info()
	if err != nil {
		return fmt.Errorf("database info: %w", err)
	}
	return s.Put(key, info.String(), blob)
}
