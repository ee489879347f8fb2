package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"quoterag/internal/config"
)

func TestOpenMemory(t *testing.T) {
	s, err := Open(context.Background(), config.CatalogStoreConfig{Type: "memory"}, 8)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if n, _ := s.Count(context.Background()); n != 0 {
		t.Errorf("expected empty store, got %d", n)
	}
}

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(context.Background(), config.CatalogStoreConfig{Type: "sqlite", SQLite: &config.SQLiteConfig{Path: path}}, 8)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
}

func TestOpenUnknownType(t *testing.T) {
	if _, err := Open(context.Background(), config.CatalogStoreConfig{Type: "chroma"}, 8); err == nil {
		t.Error("expected error for unknown store type")
	}
}
