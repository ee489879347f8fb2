package memory

import (
	"context"
	"errors"
	"math"
	"sync"

	"quoterag/internal/domain"
)

// Storage is a simple in-memory catalog store using brute-force cosine
// similarity. Records are kept in insertion order.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	records   []domain.Record
	index     map[string]int
}

func NewStorage() *Storage { return &Storage{index: make(map[string]int)} }

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 && s.dimension != dimension && len(s.records) > 0 {
		return errors.New("vector dimension mismatch")
	}
	s.dimension = dimension
	return nil
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Add stores records under their ids, replacing any existing record with the
// same id. The batch is validated before anything is written.
func (s *Storage) Add(ctx context.Context, records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if r.Entry.ID == "" {
			return errors.New("record without id")
		}
		if len(r.Embedding) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for _, r := range records {
		if i, ok := s.index[r.Entry.ID]; ok {
			s.records[i] = r
			continue
		}
		s.index[r.Entry.ID] = len(s.records)
		s.records = append(s.records, r)
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	scores := make([]float64, len(s.records))
	for i := range s.records {
		scores[i] = cosine(s.records[i].Embedding, vector)
	}
	idxs := argsortDesc(scores)
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for i := 0; i < topK; i++ {
		j := idxs[i]
		results = append(results, domain.SearchResult{
			Entry:    s.records[j].Entry,
			Document: s.records[j].Document,
			Score:    scores[j],
		})
	}
	return results, nil
}

func (s *Storage) List(ctx context.Context) ([]domain.PriceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PriceEntry, len(s.records))
	for i, r := range s.records {
		out[i] = r.Entry
	}
	return out, nil
}

// Delete removes the given ids. Unknown ids are ignored.
func (s *Storage) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := s.records[:0]
	for _, r := range s.records {
		if _, ok := drop[r.Entry.ID]; ok {
			continue
		}
		kept = append(kept, r)
	}
	for i := len(kept); i < len(s.records); i++ {
		s.records[i] = domain.Record{}
	}
	s.records = kept
	s.index = make(map[string]int, len(kept))
	for i, r := range kept {
		s.index[r.Entry.ID] = i
	}
	return nil
}

func (s *Storage) Close() error { return nil }

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	quicksort(idxs, vals, 0, len(idxs)-1)
	return idxs
}

func quicksort(idxs []int, vals []float64, lo, hi int) {
	if lo >= hi {
		return
	}
	i, j := lo, hi
	pivot := vals[idxs[(lo+hi)/2]]
	for i <= j {
		for vals[idxs[i]] > pivot { // desc order
			i++
		}
		for vals[idxs[j]] < pivot {
			j--
		}
		if i <= j {
			idxs[i], idxs[j] = idxs[j], idxs[i]
			i++
			j--
		}
	}
	if lo < j {
		quicksort(idxs, vals, lo, j)
	}
	if i < hi {
		quicksort(idxs, vals, i, hi)
	}
}
