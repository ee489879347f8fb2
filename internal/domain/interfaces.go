package domain

import "context"

// PriceEntry is a single supplier price in the catalog.
type PriceEntry struct {
	ID       string  `json:"id"`
	Supplier string  `json:"supplier"`
	Name     string  `json:"name"`
	Spec     string  `json:"spec"`
	Unit     string  `json:"unit"`
	Price    float64 `json:"price"`
}

// Candidate is an entry that has not been inserted yet. Price stays raw
// (number or text) until the catalog coerces it.
type Candidate struct {
	Supplier string `json:"supplier"`
	Name     string `json:"name"`
	Spec     string `json:"spec"`
	Unit     string `json:"unit"`
	Price    any    `json:"price"`
}

// Record is what the catalog store persists for one entry: metadata, the
// retrieval text and its embedding, always written together.
type Record struct {
	Entry     PriceEntry
	Document  string
	Embedding []float32
}

// SearchResult is a catalog entry matched by vector similarity.
type SearchResult struct {
	Entry    PriceEntry
	Document string
	Score    float64
}

// ImportResult tallies a batch insert. Partial success is normal.
type ImportResult struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

// Embedder converts free text into a fixed-length vector.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CatalogStore persists entries with their vectors and supports
// nearest-neighbour search. Add and Delete are single logical writes: a
// vector never exists without its metadata or the other way round.
type CatalogStore interface {
	Init(ctx context.Context, dimension int) error
	Count(ctx context.Context) (int, error)
	Add(ctx context.Context, records []Record) error
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
	List(ctx context.Context) ([]PriceEntry, error)
	Delete(ctx context.Context, ids []string) error
	Close() error
}

// Oracle is the language-model completion service. Its output is untrusted
// text; callers parse it and report OracleFormatError on failure.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
