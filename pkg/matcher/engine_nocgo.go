//go:build !cgo

package matcher

import (
	"log/slog"

	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
)

// newEngine rejects every pattern; without cgo all rules run on the
// fallback regex engine.
func newEngine(patterns []*hyperscan.Pattern, logger *slog.Logger) (engine, map[int]error, error) {
	rejected := make(map[int]error, len(patterns))
	for _, p := range patterns {
		rejected[p.ID] = hyperscan.ErrUnsupported
	}
	logger.Debug("native engine unavailable", "rules", len(patterns))
	return nil, rejected, nil
}
