package service

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"quoterag/internal/catalog"
	"quoterag/internal/domain"
)

// retriever searches by embedding and falls back to lexical overlap when the
// vectors cannot rank anything: the query embeds to the zero vector (it shares
// no feature with the hashing vocabulary), or every vector score is zero.
// Stores score a zero query differently (sqlite-vec reports 0.5 against unit
// vectors), so the query vector itself is checked first.
type retriever struct {
	catalog *catalog.Manager
}

func newRetriever(cat *catalog.Manager) *retriever { return &retriever{catalog: cat} }

func (r *retriever) Search(ctx context.Context, text string, topK int) ([]domain.SearchResult, error) {
	vec, err := r.catalog.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	if zeroVector(vec) {
		lex, err := r.lexical(ctx, text, topK)
		if err != nil || len(lex) > 0 {
			return lex, err
		}
	}

	res, err := r.catalog.SearchVector(ctx, vec, topK)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 || zeroVector(vec) {
		return res, nil
	}
	for _, hit := range res {
		if hit.Score > 1e-9 {
			return res, nil
		}
	}
	if lex, err := r.lexical(ctx, text, topK); err != nil || len(lex) > 0 {
		return lex, err
	}
	return res, nil
}

func (r *retriever) lexical(ctx context.Context, text string, topK int) ([]domain.SearchResult, error) {
	entries, err := r.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	return lexicalSearch(entries, text, topK), nil
}

func zeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

var (
	unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+(?:[.x×*]\p{N}+)*`)
)

// lexicalSearch ranks entries by Ochiai overlap with the query and drops
// entries sharing no token with it.
func lexicalSearch(entries []domain.PriceEntry, query string, topK int) []domain.SearchResult {
	qset := toTokenSet(query)
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, 0, len(entries))
	for i, e := range entries {
		if s := overlapOchiai(qset, e.Document()); s > 0 {
			scores = append(scores, pair{i, s})
		}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if topK <= 0 {
		topK = 5
	}
	if topK > len(scores) {
		topK = len(scores)
	}
	out := make([]domain.SearchResult, 0, topK)
	for _, p := range scores[:topK] {
		e := entries[p.idx]
		out = append(out, domain.SearchResult{Entry: e, Document: e.Document(), Score: p.score})
	}
	return out
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// overlapOchiai is |A∩B| / sqrt(|A||B|) over distinct tokens.
func overlapOchiai(qset map[string]struct{}, text string) float64 {
	stoks := unicodeWordRe.FindAllString(strings.ToLower(text), -1)
	seen := make(map[string]struct{}, len(stoks))
	inter := 0
	for _, t := range stoks {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	if len(qset) == 0 || len(seen) == 0 {
		return 0
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(seen)))
}
