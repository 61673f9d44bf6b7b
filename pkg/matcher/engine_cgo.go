//go:build cgo

package matcher

import (
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
)

type hsEngine struct {
	db    *hyperscan.BlockDatabase
	proto *hyperscan.Scratch
	pool  sync.Pool
}

// newEngine compiles every pattern it can. Pattern ids must be rule
// indices; rejected maps the index of each pattern the compiler refused to
// its error. A nil engine with no error means nothing compiled.
func newEngine(patterns []*hyperscan.Pattern, logger *slog.Logger) (engine, map[int]error, error) {
	ps := make([]*hyperscan.Pattern, len(patterns))
	for i, p := range patterns {
		ps[i] = enginePattern(p)
	}
	rejected := make(map[int]error)
	db, kept, err := compileIsolating(ps, rejected)
	if err != nil {
		return nil, nil, err
	}
	for idx, rerr := range rejected {
		logger.Debug("rule rejected by engine", "rule", idx, "error", rerr)
	}
	if db == nil {
		return nil, rejected, nil
	}
	proto, err := hyperscan.NewScratch(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	e := &hsEngine{db: db, proto: proto}
	e.pool.New = func() any {
		s, err := e.proto.Clone()
		if err != nil {
			return err
		}
		return s
	}
	logger.Debug("engine compiled", "patterns", len(kept), "rejected", len(rejected))
	return e, rejected, nil
}

// compileIsolating compiles ps, dropping the patterns the compiler rejects.
// Errors naming an expression drop it directly; others are narrowed down by
// compiling each half on its own.
func compileIsolating(ps []*hyperscan.Pattern, rejected map[int]error) (*hyperscan.BlockDatabase, []*hyperscan.Pattern, error) {
	for len(ps) > 0 {
		db, err := hyperscan.NewBlockDatabase(ps...)
		if err == nil {
			return db, ps, nil
		}
		var cerr *hyperscan.CompileError
		if !errors.As(err, &cerr) {
			return nil, nil, err
		}
		if i := cerr.Expression; i >= 0 && i < len(ps) {
			rejected[ps[i].ID] = err
			ps = slices.Delete(slices.Clone(ps), i, i+1)
			continue
		}
		if len(ps) == 1 {
			rejected[ps[0].ID] = err
			return nil, nil, nil
		}

		mid := len(ps) / 2
		var kept []*hyperscan.Pattern
		for _, half := range [][]*hyperscan.Pattern{ps[:mid], ps[mid:]} {
			hdb, good, herr := compileIsolating(half, rejected)
			if herr != nil {
				return nil, nil, herr
			}
			if hdb != nil {
				hdb.Close()
				kept = append(kept, good...)
			}
		}
		if len(kept) == len(ps) {
			// every half compiles alone, the union does not
			return nil, nil, err
		}
		ps = kept
	}
	return nil, nil, nil
}

func (e *hsEngine) scan(content []byte, fn func(rule int, end uint64)) error {
	v := e.pool.Get()
	s, ok := v.(*hyperscan.Scratch)
	if !ok {
		return v.(error)
	}
	defer e.pool.Put(s)
	return e.db.Scan(content, s, func(m hyperscan.Match) hyperscan.Decision {
		fn(int(m.ID), m.To)
		return hyperscan.Continue
	})
}

// close frees the database and prototype scratch. Pooled clones are freed
// by their cleanups.
func (e *hsEngine) close() error {
	return errors.Join(e.proto.Close(), e.db.Close())
}
