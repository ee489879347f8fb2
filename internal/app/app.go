// Package app assembles the quotation service from configuration. Both
// binaries share it so the server and the console always see the same
// catalog wiring.
package app

import (
	"context"
	"fmt"
	"time"

	"quoterag/internal/archive"
	"quoterag/internal/catalog"
	"quoterag/internal/config"
	"quoterag/internal/domain"
	"quoterag/internal/embedding"
	"quoterag/internal/logger"
	"quoterag/internal/oracle"
	"quoterag/internal/quote"
	"quoterag/internal/service"
	"quoterag/internal/vectorstore"
)

// App holds the assembled service and the resources that must be closed.
type App struct {
	Service  *service.QuoteService
	Embedder domain.Embedder
	store    domain.CatalogStore
}

// Build wires embedder, catalog store, oracle and the optional archive.
func Build(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	emb, err := embedding.New(cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	store, err := vectorstore.Open(ctx, cfg.CatalogStore, emb.Dimension())
	if err != nil {
		return nil, fmt.Errorf("catalog store: %w", err)
	}

	orc, err := oracle.New(oracle.Config{
		Provider:  cfg.Oracle.Provider,
		APIKey:    config.Secret(cfg.Oracle.APIKeyEnv),
		Model:     cfg.Oracle.Model,
		BaseURL:   cfg.Oracle.BaseURL,
		MaxTokens: cfg.Oracle.MaxTokens,
		Timeout:   time.Duration(cfg.Oracle.TimeoutSecs) * time.Second,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("oracle: %w", err)
	}

	opts := service.Options{
		TopK:          cfg.Quote.TopK,
		Verify:        quote.ParseVerifyMode(cfg.Quote.Verify),
		DefaultMargin: cfg.Quote.DefaultMargin,
		LinesPerChunk: cfg.Import.LinesPerChunk,
	}
	if cfg.Archive.Enabled {
		arch, err := archive.NewClient(archive.Config{
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: config.Secret(cfg.Archive.AccessKeyEnv),
			SecretKey: config.Secret(cfg.Archive.SecretKeyEnv),
			Bucket:    cfg.Archive.Bucket,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("archive: %w", err)
		}
		if err := arch.Init(ctx); err != nil {
			// imports still work without the archive
			logger.Warn("archive unavailable", "endpoint", cfg.Archive.Endpoint, "error", err)
		}
		opts.Archiver = arch
	}

	logger.Info("catalog ready",
		"embedder", emb.Name(),
		"dimension", emb.Dimension(),
		"store", cfg.CatalogStore.Type,
		"oracle", cfg.Oracle.Provider,
	)
	return &App{
		Service:  service.NewQuoteService(catalog.NewManager(store, emb), orc, opts),
		Embedder: emb,
		store:    store,
	}, nil
}

func (a *App) Close() error { return a.store.Close() }
