package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"quoterag/internal/domain"
	"quoterag/internal/logger"
	"quoterag/internal/pricefile"
)

// SeedFiles lists the .txt price lists directly inside dir, sorted.
func SeedFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Seed loads the given price list files, but only into an empty catalog; a
// populated catalog is left untouched and 0 is returned. Seeded entries get
// deterministic ids "{file stem}_{ordinal}".
func (m *Manager) Seed(ctx context.Context, paths []string) (int, error) {
	n, err := m.store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Debug("catalog already populated, skipping seed", "entries", n)
		return 0, nil
	}

	total := 0
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return total, fmt.Errorf("open seed file: %w", err)
		}
		items, err := pricefile.Parse(f)
		f.Close()
		if err != nil {
			return total, fmt.Errorf("parse %s: %w", p, err)
		}

		stem := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		entries := make([]domain.PriceEntry, 0, len(items))
		for i, item := range items {
			e, err := item.Entry()
			if err != nil {
				logger.Warn("skipping seed row", "file", p, "ordinal", i, "error", err)
				continue
			}
			e.ID = fmt.Sprintf("%s_%d", stem, i)
			entries = append(entries, e)
		}
		if len(entries) == 0 {
			continue
		}
		if err := m.put(ctx, entries...); err != nil {
			return total, fmt.Errorf("seed %s: %w", p, err)
		}
		logger.Info("seeded price list", "file", p, "entries", len(entries))
		total += len(entries)
	}
	return total, nil
}
