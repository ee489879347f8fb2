package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quoterag/internal/domain"
	"quoterag/internal/logger"
	"quoterag/internal/oracle"
)

// Retriever returns the catalog entries nearest to a piece of text.
type Retriever interface {
	Search(ctx context.Context, text string, topK int) ([]domain.SearchResult, error)
}

// VerifyMode controls what happens when the oracle's arithmetic does not add up.
type VerifyMode string

const (
	VerifyOff    VerifyMode = "off"
	VerifyWarn   VerifyMode = "warn"
	VerifyReject VerifyMode = "reject"
)

// ParseVerifyMode accepts the config spelling; unknown values fall back to warn.
func ParseVerifyMode(s string) VerifyMode {
	switch VerifyMode(strings.ToLower(strings.TrimSpace(s))) {
	case VerifyOff:
		return VerifyOff
	case VerifyReject:
		return VerifyReject
	default:
		return VerifyWarn
	}
}

type Options struct {
	TopK   int
	Verify VerifyMode
}

// Composer turns an inquiry into a quote with a single oracle call grounded
// on the nearest catalog entries.
type Composer struct {
	retriever Retriever
	oracle    domain.Oracle
	topK      int
	verify    VerifyMode
}

func NewComposer(r Retriever, o domain.Oracle, opts Options) *Composer {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.Verify == "" {
		opts.Verify = VerifyWarn
	}
	return &Composer{retriever: r, oracle: o, topK: opts.TopK, verify: opts.Verify}
}

// Compose builds a quote for inquiry with the given margin over cost
// (0.25 means 25%). The oracle's structure is returned as parsed; a quote
// without items is reported as NotFoundError.
func (c *Composer) Compose(ctx context.Context, inquiry string, margin float64) (*domain.Quote, error) {
	if strings.TrimSpace(inquiry) == "" {
		return nil, &domain.ValidationError{Field: "inquiry", Reason: "required"}
	}
	if margin <= -1 {
		return nil, &domain.ValidationError{Field: "margin", Reason: "must be greater than -1"}
	}

	results, err := c.retriever.Search(ctx, inquiry, c.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve candidates: %w", err)
	}
	if len(results) == 0 {
		return nil, &domain.NotFoundError{Reason: "no matching products in the price library"}
	}

	facts := make([]string, len(results))
	for i, r := range results {
		facts[i] = FactLine(r.Entry)
	}
	logger.Debug("quote candidates", "inquiry", inquiry, "candidates", len(facts))

	raw, err := c.oracle.Complete(ctx, BuildPrompt(inquiry, facts, margin))
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}

	q, err := decodeQuote(raw)
	if err != nil {
		return nil, err
	}
	if len(q.Items) == 0 {
		return nil, &domain.NotFoundError{Reason: "no candidate product matched the inquiry"}
	}

	if c.verify != VerifyOff {
		if problems := Verify(&q, margin); len(problems) > 0 {
			if c.verify == VerifyReject {
				return nil, &domain.OracleFormatError{Raw: raw, Err: fmt.Errorf("arithmetic check failed: %s", problems)}
			}
			logger.Warn("quote arithmetic mismatch", "inquiry", inquiry, "problems", problems.String())
		}
	}
	return q, nil
}

// decodeQuote parses the oracle reply. A reply without an items array is a
// format error; only an explicit empty array means nothing matched.
func decodeQuote(raw string) (*domain.Quote, error) {
	var shape struct {
		Items *[]domain.LineItem `json:"items"`
	}
	if err := oracle.DecodeJSON(raw, &shape); err != nil {
		return nil, err
	}
	if shape.Items == nil {
		return nil, &domain.OracleFormatError{Raw: raw, Err: errors.New(`missing "items" array`)}
	}
	var q domain.Quote
	if err := oracle.DecodeJSON(raw, &q); err != nil {
		return nil, err
	}
	return &q, nil
}
