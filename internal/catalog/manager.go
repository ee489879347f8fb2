package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"quoterag/internal/domain"
	"quoterag/internal/logger"
)

// Manager owns every catalog mutation. It computes the embedding for an
// entry and hands vector and metadata to the store as one write, which keeps
// the retrieval index and the catalog from diverging.
type Manager struct {
	store    domain.CatalogStore
	embedder domain.Embedder
	newID    func() string
}

func NewManager(store domain.CatalogStore, embedder domain.Embedder) *Manager {
	return &Manager{
		store:    store,
		embedder: embedder,
		newID:    func() string { return uuid.New().String() },
	}
}

func (m *Manager) Count(ctx context.Context) (int, error) {
	return m.store.Count(ctx)
}

// List returns all entries in store order.
func (m *Manager) List(ctx context.Context) ([]domain.PriceEntry, error) {
	return m.store.List(ctx)
}

// Search embeds text and returns its topK nearest entries.
func (m *Manager) Search(ctx context.Context, text string, topK int) ([]domain.SearchResult, error) {
	vec, err := m.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	return m.SearchVector(ctx, vec, topK)
}

// EmbedQuery embeds retrieval text with the catalog's embedder.
func (m *Manager) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vec, nil
}

func (m *Manager) SearchVector(ctx context.Context, vec []float32, topK int) ([]domain.SearchResult, error) {
	return m.store.Search(ctx, vec, topK)
}

// Insert validates a candidate, assigns a fresh id and stores it.
func (m *Manager) Insert(ctx context.Context, c domain.Candidate) (string, error) {
	entry, err := c.Entry()
	if err != nil {
		return "", err
	}
	entry.ID = m.newID()
	if err := m.put(ctx, entry); err != nil {
		return "", err
	}
	logger.Debug("price entry inserted", "id", entry.ID, "supplier", entry.Supplier, "name", entry.Name)
	return entry.ID, nil
}

func (m *Manager) put(ctx context.Context, entries ...domain.PriceEntry) error {
	records := make([]domain.Record, len(entries))
	for i, e := range entries {
		doc := e.Document()
		vec, err := m.embedder.Embed(ctx, doc)
		if err != nil {
			return fmt.Errorf("embed %q: %w", doc, err)
		}
		records[i] = domain.Record{Entry: e, Document: doc, Embedding: vec}
	}
	if err := m.store.Add(ctx, records); err != nil {
		return fmt.Errorf("store entries: %w", err)
	}
	return nil
}

// Delete removes the given ids. Ids not in the catalog are ignored.
func (m *Manager) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := m.store.Delete(ctx, ids); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	logger.Info("price entries deleted", "count", len(ids))
	return nil
}

// ClearAll deletes every entry and reports how many there were.
func (m *Manager) ClearAll(ctx context.Context) (int, error) {
	entries, err := m.store.List(ctx)
	if err != nil {
		return 0, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := m.Delete(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// BulkInsert inserts candidates one by one. A failing candidate is counted
// and skipped; it never aborts the batch.
func (m *Manager) BulkInsert(ctx context.Context, candidates []domain.Candidate) domain.ImportResult {
	var res domain.ImportResult
	for i, c := range candidates {
		if _, err := m.Insert(ctx, c); err != nil {
			logger.Warn("skipping price entry", "index", i, "name", c.Name, "error", err)
			res.Failed++
			continue
		}
		res.Imported++
	}
	logger.Info("bulk insert finished", "imported", res.Imported, "failed", res.Failed)
	return res
}
