package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Embedder.Type != "hashing" {
		t.Errorf("expected hashing embedder, got %s", cfg.Embedder.Type)
	}
	if cfg.CatalogStore.Type != "sqlite" || cfg.CatalogStore.SQLite == nil || cfg.CatalogStore.SQLite.Path != "catalog.db" {
		t.Errorf("unexpected catalog store defaults: %+v", cfg.CatalogStore)
	}
	if cfg.Quote.TopK != 5 {
		t.Errorf("expected top_k 5, got %d", cfg.Quote.TopK)
	}
	if cfg.Server.Prefix != "/scene1/api" {
		t.Errorf("expected /scene1/api prefix, got %s", cfg.Server.Prefix)
	}
	if cfg.Oracle.APIKeyEnv != "ZHIPU_API_KEY" {
		t.Errorf("expected ZHIPU_API_KEY, got %s", cfg.Oracle.APIKeyEnv)
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
embedder:
  type: openai
oracle:
  provider: claude
catalog_store:
  type: qdrant
quote:
  default_margin: 0.2
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Embedder.OpenAI == nil || cfg.Embedder.OpenAI.Model != "embedding-3" {
		t.Fatalf("expected openai embedder defaults, got %+v", cfg.Embedder.OpenAI)
	}
	if cfg.Embedder.Dimension != 2048 {
		t.Errorf("expected dimension 2048, got %d", cfg.Embedder.Dimension)
	}
	if cfg.Oracle.APIKeyEnv != "ANTHROPIC_API_KEY" {
		t.Errorf("expected ANTHROPIC_API_KEY, got %s", cfg.Oracle.APIKeyEnv)
	}
	if cfg.CatalogStore.Qdrant == nil || cfg.CatalogStore.Qdrant.Collection != "price_library" {
		t.Errorf("expected qdrant defaults, got %+v", cfg.CatalogStore.Qdrant)
	}
	if cfg.Quote.DefaultMargin != 0.2 {
		t.Errorf("expected margin 0.2, got %v", cfg.Quote.DefaultMargin)
	}
	if cfg.Quote.Verify != "warn" {
		t.Errorf("expected verify warn, got %s", cfg.Quote.Verify)
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Server.Addr = ":9090"
	cfg.Import.LinesPerChunk = 10

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Server.Addr != ":9090" || loaded.Import.LinesPerChunk != 10 {
		t.Errorf("unexpected loaded config: %+v", loaded)
	}
}

func TestSecret(t *testing.T) {
	t.Setenv("QUOTERAG_TEST_SECRET", "s3cret")
	if got := Secret("QUOTERAG_TEST_SECRET"); got != "s3cret" {
		t.Errorf("expected s3cret, got %q", got)
	}
	if got := Secret(""); got != "" {
		t.Errorf("expected empty secret for empty env name, got %q", got)
	}
}
