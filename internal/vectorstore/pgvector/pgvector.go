package pgvector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quoterag/internal/domain"
)

// Storage implements the catalog store on Postgres + pgvector. Metadata and
// embedding share one row, so every write is a single statement or a single
// transaction.
type Storage struct {
	pool      *pgxpool.Pool
	table     string
	dimension int
}

// Open connects to Postgres. The table is created in Init once the embedding
// dimension is known.
func Open(ctx context.Context, dsn, table string) (*Storage, error) {
	if dsn == "" {
		return nil, errors.New("pgvector: dsn is required")
	}
	if table == "" {
		table = "price_library"
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return &Storage{pool: pool, table: pgx.Identifier{table}.Sanitize()}, nil
}

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	ddl := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS %[1]s (
  seq        bigserial,
  id         text PRIMARY KEY,
  supplier   text NOT NULL,
  name       text NOT NULL,
  spec       text NOT NULL DEFAULT '',
  unit       text NOT NULL DEFAULT '',
  price      double precision NOT NULL,
  document   text NOT NULL,
  embedding  vector(%[2]d) NOT NULL,
  created_at timestamptz NOT NULL DEFAULT now()
);
`, s.table, dimension)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure table: %w", err)
	}
	s.dimension = dimension
	return nil
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&n)
	return n, err
}

// Add upserts records in one transaction.
func (s *Storage) Add(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	lits := make([]string, len(records))
	for i, r := range records {
		if r.Entry.ID == "" {
			return errors.New("record without id")
		}
		lit, err := toVectorLiteral(r.Embedding, s.dimension)
		if err != nil {
			return err
		}
		lits[i] = lit
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
INSERT INTO %s (id, supplier, name, spec, unit, price, document, embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::vector)
ON CONFLICT (id) DO UPDATE SET
  supplier = EXCLUDED.supplier,
  name = EXCLUDED.name,
  spec = EXCLUDED.spec,
  unit = EXCLUDED.unit,
  price = EXCLUDED.price,
  document = EXCLUDED.document,
  embedding = EXCLUDED.embedding
`, s.table)
	for i, r := range records {
		e := r.Entry
		if _, err := tx.Exec(ctx, stmt, e.ID, e.Supplier, e.Name, e.Spec, e.Unit, e.Price, r.Document, lits[i]); err != nil {
			return fmt.Errorf("upsert %s: %w", e.ID, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	lit, err := toVectorLiteral(vector, s.dimension)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
SELECT id, supplier, name, spec, unit, price, document, 1 - (embedding <=> $1::vector) AS score
FROM %s
ORDER BY embedding <=> $1::vector
LIMIT $2
`, s.table)

	rows, err := s.pool.Query(ctx, query, lit, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var r domain.SearchResult
		if err := rows.Scan(&r.Entry.ID, &r.Entry.Supplier, &r.Entry.Name, &r.Entry.Spec, &r.Entry.Unit, &r.Entry.Price, &r.Document, &r.Score); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Storage) List(ctx context.Context) ([]domain.PriceEntry, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT id, supplier, name, spec, unit, price FROM %s ORDER BY seq`, s.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.PriceEntry{}
	for rows.Next() {
		var e domain.PriceEntry
		if err := rows.Scan(&e.ID, &e.Supplier, &e.Name, &e.Spec, &e.Unit, &e.Price); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes ids in one statement; unknown ids match nothing.
func (s *Storage) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, s.table), ids)
	return err
}

func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

func toVectorLiteral(embedding []float32, dim int) (string, error) {
	if len(embedding) == 0 {
		return "", errors.New("embedding is required")
	}
	if dim > 0 && len(embedding) != dim {
		return "", fmt.Errorf("embedding length %d does not match dimension %d", len(embedding), dim)
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]", nil
}
