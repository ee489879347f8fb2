package service

import (
	"context"
	"fmt"

	"quoterag/internal/catalog"
	"quoterag/internal/domain"
	"quoterag/internal/editor"
	"quoterag/internal/importer"
	"quoterag/internal/logger"
	"quoterag/internal/quote"
)

// Archiver keeps a copy of an uploaded import file.
type Archiver interface {
	Store(ctx context.Context, filename string, data []byte) (string, error)
}

// QuoteService is the single entry point used by the HTTP surface and the
// console. It owns no state beyond its collaborators.
type QuoteService struct {
	catalog       *catalog.Manager
	composer      *quote.Composer
	editor        *editor.Editor
	importer      *importer.Pipeline
	archiver      Archiver
	defaultMargin float64
}

type Options struct {
	TopK          int
	Verify        quote.VerifyMode
	DefaultMargin float64
	LinesPerChunk int
	// Archiver may be nil.
	Archiver Archiver
}

func NewQuoteService(cat *catalog.Manager, o domain.Oracle, opts Options) *QuoteService {
	return &QuoteService{
		catalog:       cat,
		composer:      quote.NewComposer(newRetriever(cat), o, quote.Options{TopK: opts.TopK, Verify: opts.Verify}),
		editor:        editor.New(cat, o),
		importer:      importer.NewPipeline(cat, o, importer.Options{LinesPerChunk: opts.LinesPerChunk}),
		archiver:      opts.Archiver,
		defaultMargin: opts.DefaultMargin,
	}
}

// Seed loads the .txt price lists in dir into an empty catalog.
func (s *QuoteService) Seed(ctx context.Context, dir string) (int, error) {
	paths, err := catalog.SeedFiles(dir)
	if err != nil {
		return 0, fmt.Errorf("list seed files: %w", err)
	}
	if len(paths) == 0 {
		logger.Debug("no seed price lists found", "dir", dir)
		return 0, nil
	}
	return s.catalog.Seed(ctx, paths)
}

// Quote composes a quotation. A nil margin uses the configured default.
func (s *QuoteService) Quote(ctx context.Context, inquiry string, margin *float64) (*domain.Quote, error) {
	m := s.defaultMargin
	if margin != nil {
		m = *margin
	}
	return s.composer.Compose(ctx, inquiry, m)
}

func (s *QuoteService) DefaultMargin() float64 { return s.defaultMargin }

func (s *QuoteService) ListPrices(ctx context.Context) ([]domain.PriceEntry, error) {
	return s.catalog.List(ctx)
}

func (s *QuoteService) CountPrices(ctx context.Context) (int, error) {
	return s.catalog.Count(ctx)
}

func (s *QuoteService) AddPrice(ctx context.Context, c domain.Candidate) (string, error) {
	return s.catalog.Insert(ctx, c)
}

func (s *QuoteService) DeletePrice(ctx context.Context, id string) error {
	return s.catalog.Delete(ctx, []string{id})
}

func (s *QuoteService) ClearPrices(ctx context.Context) (int, error) {
	return s.catalog.ClearAll(ctx)
}

func (s *QuoteService) ImportText(ctx context.Context, text string) (domain.ImportResult, error) {
	return s.importer.ImportText(ctx, text)
}

// ImportFile archives the upload when an archiver is configured, then
// imports it. A failed archive upload is logged and does not block the import.
func (s *QuoteService) ImportFile(ctx context.Context, filename string, data []byte) (domain.ImportResult, error) {
	if s.archiver != nil {
		if key, err := s.archiver.Store(ctx, filename, data); err != nil {
			logger.Warn("archive upload failed", "file", filename, "error", err)
		} else {
			logger.Info("import file archived", "file", filename, "key", key)
		}
	}
	return s.importer.ImportFile(ctx, filename, data)
}

// ProposeDeletion returns the entries an instruction refers to without
// deleting anything.
func (s *QuoteService) ProposeDeletion(ctx context.Context, instruction string) (*domain.Proposal[domain.PriceEntry], error) {
	return s.editor.ProposeMatches(ctx, instruction)
}

// ConfirmDeletion deletes exactly the ids the operator reviewed.
func (s *QuoteService) ConfirmDeletion(ctx context.Context, ids []string) (int, error) {
	return s.editor.CommitDeletion(ctx, ids)
}
