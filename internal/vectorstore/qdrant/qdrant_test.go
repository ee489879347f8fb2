package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"quoterag/internal/domain"
)

// fakeQdrant keeps upserted points keyed by point id and answers the handful
// of endpoints the store uses.
type fakeQdrant struct {
	mu      sync.Mutex
	created bool
	points  map[string]map[string]any
	order   []string
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == "/collections/prices":
		if !f.created {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"result":{"config":{"params":{"vectors":{"size":2}}}}}`))
	case r.Method == http.MethodPut && path == "/collections/prices":
		f.created = true
		_, _ = w.Write([]byte(`{"result":true}`))
	case r.Method == http.MethodPut && path == "/collections/prices/points":
		for _, p := range body["points"].([]any) {
			pm := p.(map[string]any)
			id := pm["id"].(string)
			if _, ok := f.points[id]; !ok {
				f.order = append(f.order, id)
			}
			f.points[id] = pm["payload"].(map[string]any)
		}
		_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
	case path == "/collections/prices/points/count":
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"count": len(f.points)}})
	case path == "/collections/prices/points/scroll":
		var pts []map[string]any
		for _, id := range f.order {
			if p, ok := f.points[id]; ok {
				pts = append(pts, map[string]any{"id": id, "payload": p})
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"points": pts, "next_page_offset": nil}})
	case path == "/collections/prices/points/search":
		var res []map[string]any
		for i, id := range f.order {
			if p, ok := f.points[id]; ok {
				res = append(res, map[string]any{"id": id, "score": 1.0 / float64(i+1), "payload": p})
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": res})
	case path == "/collections/prices/points/delete":
		for _, id := range body["points"].([]any) {
			delete(f.points, id.(string))
		}
		_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusBadRequest)
	}
}

func TestStorageRoundTrip(t *testing.T) {
	fake := &fakeQdrant{points: map[string]map[string]any{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	s := NewStorage(Config{URL: srv.URL, Collection: "prices"})
	if err := s.Init(ctx, 2); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !fake.created {
		t.Fatal("expected collection to be created")
	}

	recs := []domain.Record{
		{Entry: domain.PriceEntry{ID: "prices_0", Supplier: "A", Name: "Bolt", Price: 0.5}, Document: "Bolt  supplier:A", Embedding: []float32{1, 0}},
		{Entry: domain.PriceEntry{ID: "prices_1", Supplier: "B", Name: "Nut", Price: 0.1}, Document: "Nut  supplier:B", Embedding: []float32{0, 1}},
	}
	if err := s.Add(ctx, recs); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, ok := fake.points[PointID("prices_0")]; !ok {
		t.Fatal("expected point stored under derived UUID")
	}

	n, err := s.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("count: n=%d err=%v", n, err)
	}

	res, err := s.Search(ctx, []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 2 || res[0].Entry.ID != "prices_0" || res[0].Entry.Price != 0.5 {
		t.Errorf("unexpected search results %+v", res)
	}

	if err := s.Delete(ctx, []string{"prices_0"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "prices_1" {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestInitRejectsDimensionMismatch(t *testing.T) {
	fake := &fakeQdrant{created: true, points: map[string]map[string]any{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	err := NewStorage(Config{URL: srv.URL, Collection: "prices"}).Init(context.Background(), 3)
	if err == nil || !strings.Contains(err.Error(), "dimension") {
		t.Errorf("expected dimension error, got %v", err)
	}
}

func TestPointIDIsDeterministicUUID(t *testing.T) {
	a, b := PointID("prices_0"), PointID("prices_0")
	if a != b || len(a) != 36 {
		t.Errorf("expected stable uuid, got %q and %q", a, b)
	}
	if PointID("prices_1") == a {
		t.Error("expected different ids for different entries")
	}
}
