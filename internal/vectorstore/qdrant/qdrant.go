package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"quoterag/internal/domain"
)

// pointNamespace derives Qdrant point ids from entry ids. Qdrant only accepts
// UUIDs or integers, while seeded entries use "{file}_{n}" ids.
var pointNamespace = uuid.MustParse("6f1c2a0e-3b9d-4c57-9a41-2d8e5f7b0c13")

const scrollPageSize = 256

// Storage is a minimal REST client to Qdrant.
// It assumes cosine distance and creates the collection if missing.
type Storage struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// PointID maps an entry id to its Qdrant point id.
func PointID(entryID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(entryID)).String()
}

func (s *Storage) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.dimension = dimension

	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	found, err := s.getJSON(ctx, s.collectionURL(""), &info)
	if err != nil {
		return err
	}
	if found {
		if size := info.Result.Config.Params.Vectors.Size; size != 0 && size != dimension {
			return fmt.Errorf("collection %s has dimension %d, embedder produces %d", s.collection, size, dimension)
		}
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.sendJSON(ctx, http.MethodPut, s.collectionURL(""), body, nil)
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := s.sendJSON(ctx, http.MethodPost, s.collectionURL("/points/count"), map[string]any{"exact": true}, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Add upserts all records in one points call; wait=true makes it visible to
// the next read.
func (s *Storage) Add(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]map[string]any, len(records))
	for i, r := range records {
		if r.Entry.ID == "" {
			return errors.New("record without id")
		}
		if len(r.Embedding) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
		points[i] = map[string]any{
			"id":      PointID(r.Entry.ID),
			"vector":  r.Embedding,
			"payload": toPayload(r),
		}
	}
	body := map[string]any{"points": points}
	return s.sendJSON(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), body, nil)
}

type point struct {
	Score   float64 `json:"score"`
	Payload payload `json:"payload"`
}

type payload struct {
	EntryID  string  `json:"entry_id"`
	Supplier string  `json:"supplier"`
	Name     string  `json:"name"`
	Spec     string  `json:"spec"`
	Unit     string  `json:"unit"`
	Price    float64 `json:"price"`
	Document string  `json:"document"`
}

func toPayload(r domain.Record) payload {
	e := r.Entry
	return payload{EntryID: e.ID, Supplier: e.Supplier, Name: e.Name, Spec: e.Spec, Unit: e.Unit, Price: e.Price, Document: r.Document}
}

func (p payload) entry() domain.PriceEntry {
	return domain.PriceEntry{ID: p.EntryID, Supplier: p.Supplier, Name: p.Name, Spec: p.Spec, Unit: p.Unit, Price: p.Price}
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []point `json:"result"`
	}
	if err := s.sendJSON(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, domain.SearchResult{Entry: r.Payload.entry(), Document: r.Payload.Document, Score: r.Score})
	}
	return results, nil
}

// List scrolls the whole collection.
func (s *Storage) List(ctx context.Context) ([]domain.PriceEntry, error) {
	entries := []domain.PriceEntry{}
	var offset any
	for {
		req := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": true,
			"with_vector":  false,
		}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points         []point `json:"points"`
				NextPageOffset any     `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := s.sendJSON(ctx, http.MethodPost, s.collectionURL("/points/scroll"), req, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			entries = append(entries, p.Payload.entry())
		}
		if resp.Result.NextPageOffset == nil {
			return entries, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

// Delete removes points for ids in one call; missing points are ignored by Qdrant.
func (s *Storage) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	points := make([]string, len(ids))
	for i, id := range ids {
		points[i] = PointID(id)
	}
	return s.sendJSON(ctx, http.MethodPost, s.collectionURL("/points/delete?wait=true"), map[string]any{"points": points}, nil)
}

func (s *Storage) Close() error { return nil }

func (s *Storage) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	return req, nil
}

// getJSON reports false without error when the resource does not exist.
func (s *Storage) getJSON(ctx context.Context, url string, out any) (bool, error) {
	req, err := s.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode >= 300 {
		return false, fmt.Errorf("qdrant GET %s failed: %s", url, resp.Status)
	}
	return true, json.NewDecoder(resp.Body).Decode(out)
}

func (s *Storage) sendJSON(ctx context.Context, method, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := s.newRequest(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, url, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
