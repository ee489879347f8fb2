package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"quoterag/internal/chunker"
	"quoterag/internal/domain"
	"quoterag/internal/logger"
	"quoterag/internal/oracle"
	"quoterag/internal/pricefile"
)

// Inserter is the catalog entry point every import converges on.
type Inserter interface {
	BulkInsert(ctx context.Context, candidates []domain.Candidate) domain.ImportResult
}

// Pipeline normalizes text, line-structured files and spreadsheets into
// candidates and bulk inserts them.
type Pipeline struct {
	catalog Inserter
	oracle  domain.Oracle
	chunker *chunker.LineChunker
	columns ColumnTable
}

type Options struct {
	LinesPerChunk int
	Columns       ColumnTable
}

func NewPipeline(catalog Inserter, o domain.Oracle, opts Options) *Pipeline {
	cols := opts.Columns
	if len(cols) == 0 {
		cols = DefaultColumns
	}
	return &Pipeline{
		catalog: catalog,
		oracle:  o,
		chunker: chunker.NewLineChunker(opts.LinesPerChunk, 4000),
		columns: cols,
	}
}

const extractPromptTemplate = `Extract every product price from the supplier text below.

Text:
%s

For each product return supplier, name, spec, unit and price (the unit price as a number, without currency symbols). Use "" for a field that is not given. If a supplier is named once for several products, repeat it on each of them.
Reply with JSON only, no markdown, as an array:
[{"supplier":"","name":"","spec":"","unit":"","price":0}]
If the text contains no prices, reply [].`

// ImportText extracts candidates from free text with the oracle, one call per
// chunk. A supplier marker line seen in one chunk is repeated at the top of
// the following chunks until another marker replaces it. Every chunk is
// extracted before anything is inserted, so an oracle failure leaves the
// catalog untouched.
func (p *Pipeline) ImportText(ctx context.Context, raw string) (domain.ImportResult, error) {
	chunks := p.chunker.Chunk(raw)
	if len(chunks) == 0 {
		return domain.ImportResult{}, &domain.ValidationError{Field: "text", Reason: "required"}
	}

	var candidates []domain.Candidate
	marker := ""
	for i, chunk := range chunks {
		text := chunk
		if marker != "" && !startsWithMarker(chunk) {
			// the supplier named in an earlier window still applies here
			text = marker + "\n" + chunk
		}
		if m := lastMarker(chunk); m != "" {
			marker = m
		}

		out, err := p.oracle.Complete(ctx, fmt.Sprintf(extractPromptTemplate, text))
		if err != nil {
			return domain.ImportResult{}, fmt.Errorf("oracle (chunk %d of %d): %w", i+1, len(chunks), err)
		}
		found, err := parseCandidates(out)
		if err != nil {
			return domain.ImportResult{}, err
		}
		logger.Debug("extracted candidates", "chunk", i, "count", len(found))
		candidates = append(candidates, found...)
	}
	return p.catalog.BulkInsert(ctx, candidates), nil
}

func startsWithMarker(chunk string) bool {
	first, _, _ := strings.Cut(chunk, "\n")
	_, ok := pricefile.SupplierMarker(first)
	return ok
}

// lastMarker returns the last supplier marker line of chunk, or "".
func lastMarker(chunk string) string {
	lines := strings.Split(chunk, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if _, ok := pricefile.SupplierMarker(lines[i]); ok {
			return lines[i]
		}
	}
	return ""
}

// parseCandidates accepts a bare array or {"items": [...]}. Any other object
// is a format error rather than an empty extraction.
func parseCandidates(raw string) ([]domain.Candidate, error) {
	if strings.HasPrefix(oracle.StripCodeFence(raw), "[") {
		var out []domain.Candidate
		if err := oracle.DecodeJSON(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var wrapped struct {
		Items *[]domain.Candidate `json:"items"`
	}
	if err := oracle.DecodeJSON(raw, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Items == nil {
		return nil, &domain.OracleFormatError{Raw: raw, Err: errors.New(`missing "items" array`)}
	}
	return *wrapped.Items, nil
}

// ImportStructuredLines imports a supplier price list in the line grammar.
func (p *Pipeline) ImportStructuredLines(ctx context.Context, r io.Reader) (domain.ImportResult, error) {
	items, err := pricefile.Parse(r)
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("read price list: %w", err)
	}
	return p.catalog.BulkInsert(ctx, items), nil
}

// ImportTabular imports the first sheet of an xlsx workbook. Blank rows are
// ignored; rows whose values fail validation are counted as failed.
func (p *Pipeline) ImportTabular(ctx context.Context, data []byte) (domain.ImportResult, error) {
	xlsx, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return domain.ImportResult{}, &domain.ValidationError{Field: "file", Reason: "not a readable xlsx workbook"}
	}
	defer xlsx.Close()

	sheets := xlsx.GetSheetList()
	if len(sheets) == 0 {
		return domain.ImportResult{}, nil
	}
	rows, err := xlsx.GetRows(sheets[0])
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return domain.ImportResult{}, nil
	}

	idx, hasHeader := p.columns.resolve(rows[0])
	if hasHeader {
		rows = rows[1:]
	}

	var candidates []domain.Candidate
	for _, row := range rows {
		if blank(row) {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Supplier: cell(row, idx["supplier"]),
			Name:     cell(row, idx["name"]),
			Spec:     cell(row, idx["spec"]),
			Unit:     cell(row, idx["unit"]),
			Price:    cell(row, idx["price"]),
		})
	}
	logger.Debug("tabular import", "sheet", sheets[0], "rows", len(candidates), "header", hasHeader)
	return p.catalog.BulkInsert(ctx, candidates), nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ImportFile dispatches on the file extension. Unknown extensions are
// rejected before anything is read.
func (p *Pipeline) ImportFile(ctx context.Context, filename string, data []byte) (domain.ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return p.ImportStructuredLines(ctx, bytes.NewReader(data))
	case ".xlsx":
		return p.ImportTabular(ctx, data)
	default:
		return domain.ImportResult{}, &domain.UnsupportedFormatError{Ext: ext}
	}
}
