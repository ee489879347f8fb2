package hashing

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"unicode"
)

// Embedder implements a feature-hashing vectorizer. Every token is hashed
// into one of a fixed number of buckets, so no corpus preparation is needed
// and vectors from different processes stay comparable.
type Embedder struct {
	dimension    int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewEmbedder creates a hashing embedder producing vectors of the given size.
func NewEmbedder(dimension int) (*Embedder, error) {
	if dimension <= 0 {
		return nil, errors.New("hashing embedder: dimension must be positive")
	}
	return &Embedder{
		dimension: dimension,
		// A single Han character, or a run of alphabetic letters/digits
		// optionally joined by the separators found in product specs
		// (M8x30, 1.5mm, 3/4).
		tokenPattern: regexp.MustCompile(`\p{Han}|[\p{Latin}\p{Greek}\p{Cyrillic}\p{N}]+(?:[.x×*/-][\p{Latin}\p{Greek}\p{Cyrillic}\p{N}]+)*`),
		stopwords:    defaultStopwords(),
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "hashing" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the hashed term-frequency vector for text, L2 normalized.
// Text without tokens yields the zero vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, e.dimension)
	for _, tok := range e.features(text) {
		idx, sign := e.bucket(tok)
		vec[idx] += sign
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	out := make([]float32, e.dimension)
	if norm == 0 {
		return out, nil
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

// features returns word tokens plus bigrams of adjacent Han characters, which
// stand in for words in unsegmented Chinese text.
func (e *Embedder) features(text string) []string {
	tokens := e.tokenize(text)
	out := make([]string, 0, len(tokens)*2)
	for i, tok := range tokens {
		out = append(out, tok)
		if i+1 < len(tokens) && isHan(tok) && isHan(tokens[i+1]) {
			out = append(out, tok+tokens[i+1])
		}
	}
	return out
}

func (e *Embedder) bucket(tok string) (int, float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tok))
	sum := h.Sum64()
	sign := 1.0
	if sum>>63 == 1 {
		sign = -1.0
	}
	return int(sum % uint64(e.dimension)), sign
}

func (e *Embedder) tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := e.tokenPattern.FindAllString(lower, -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func isHan(tok string) bool {
	for _, r := range tok {
		return unicode.Is(unicode.Han, r)
	}
	return false
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "be", "it", "this", "that", "from", "i", "we", "need", "want", "please", "some", "per",
		"的", "了", "和", "个", "我", "要", "需", "请",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
