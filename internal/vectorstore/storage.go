package vectorstore

import (
	"context"
	"fmt"
	"time"

	"quoterag/internal/config"
	"quoterag/internal/domain"
	"quoterag/internal/vectorstore/memory"
	"quoterag/internal/vectorstore/pgvector"
	"quoterag/internal/vectorstore/qdrant"
	"quoterag/internal/vectorstore/sqlitevec"
)

// Open builds the catalog store selected by cfg and initializes it for the
// given embedding dimension.
func Open(ctx context.Context, cfg config.CatalogStoreConfig, dimension int) (domain.CatalogStore, error) {
	var store domain.CatalogStore
	switch cfg.Type {
	case "memory":
		store = memory.NewStorage()
	case "sqlite", "":
		path := "catalog.db"
		if cfg.SQLite != nil && cfg.SQLite.Path != "" {
			path = cfg.SQLite.Path
		}
		s, err := sqlitevec.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite catalog: %w", err)
		}
		store = s
	case "pgvector":
		pc := cfg.Postgres
		if pc == nil {
			pc = &config.PostgresConfig{DSNEnv: "DATABASE_URL"}
		}
		s, err := pgvector.Open(ctx, config.Secret(pc.DSNEnv), pc.Table)
		if err != nil {
			return nil, err
		}
		store = s
	case "qdrant":
		qc := cfg.Qdrant
		if qc == nil {
			return nil, fmt.Errorf("qdrant store selected but not configured")
		}
		store = qdrant.NewStorage(qdrant.Config{
			URL:        qc.URL,
			APIKey:     config.Secret(qc.APIKeyEnv),
			Collection: qc.Collection,
			Timeout:    time.Duration(qc.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown catalog store type: %s", cfg.Type)
	}

	if err := store.Init(ctx, dimension); err != nil {
		store.Close()
		return nil, fmt.Errorf("init %s catalog store: %w", cfg.Type, err)
	}
	return store, nil
}
