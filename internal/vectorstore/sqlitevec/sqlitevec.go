package sqlitevec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"

	"quoterag/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS price_entries (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    supplier TEXT NOT NULL,
    name TEXT NOT NULL,
    spec TEXT NOT NULL DEFAULT '',
    unit TEXT NOT NULL DEFAULT '',
    price REAL NOT NULL,
    document TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS catalog_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// vec0 needs the dimension in the DDL, so the vector table is created in Init.
const vecSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS vec_price_entries USING vec0(
    entry_seq INTEGER PRIMARY KEY,
    embedding FLOAT[%d]
);
`

const (
	querySelectSeq   = `SELECT seq FROM price_entries WHERE id = ?`
	queryInsertEntry = `INSERT INTO price_entries (id, supplier, name, spec, unit, price, document) VALUES (?, ?, ?, ?, ?, ?, ?)`
	queryUpdateEntry = `UPDATE price_entries SET supplier = ?, name = ?, spec = ?, unit = ?, price = ?, document = ? WHERE seq = ?`
	queryDeleteEntry = `DELETE FROM price_entries WHERE seq = ?`
	queryInsertVec   = `INSERT INTO vec_price_entries (entry_seq, embedding) VALUES (?, ?)`
	queryDeleteVec   = `DELETE FROM vec_price_entries WHERE entry_seq = ?`
	queryListEntries = `SELECT id, supplier, name, spec, unit, price FROM price_entries ORDER BY seq`
	querySearch      = `
		SELECT e.id, e.supplier, e.name, e.spec, e.unit, e.price, e.document, v.distance
		FROM vec_price_entries v
		JOIN price_entries e ON e.seq = v.entry_seq
		WHERE v.embedding MATCH ?
		  AND k = ?
		ORDER BY v.distance
	`
)

// Storage keeps entry metadata in a plain table and vectors in a sqlite-vec
// vec0 table. Every write touches both inside one transaction.
type Storage struct {
	db        *sql.DB
	dimension int
}

// Open opens (or creates) the catalog database at path. ":memory:" is
// accepted for tests.
func Open(path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Storage{db: db}, nil
}

// Init creates the vector table. A database built with a different dimension
// is rejected rather than silently mixed.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM catalog_meta WHERE key = 'dimension'`).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, `INSERT INTO catalog_meta (key, value) VALUES ('dimension', ?)`, strconv.Itoa(dimension)); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if stored != strconv.Itoa(dimension) {
			return fmt.Errorf("catalog was built with dimension %s, embedder produces %d", stored, dimension)
		}
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(vecSchema, dimension)); err != nil {
		return fmt.Errorf("create vector table: %w", err)
	}
	s.dimension = dimension
	return nil
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM price_entries`).Scan(&n)
	return n, err
}

// Add writes metadata and vectors for every record in one transaction. An
// existing id is replaced.
func (s *Storage) Add(ctx context.Context, records []domain.Record) error {
	for _, r := range records {
		if r.Entry.ID == "" {
			return errors.New("record without id")
		}
		if len(r.Embedding) != s.dimension {
			return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(r.Embedding), s.dimension)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range records {
		blob, err := sqlite_vec.SerializeFloat32(r.Embedding)
		if err != nil {
			return err
		}
		e := r.Entry

		var seq int64
		err = tx.QueryRowContext(ctx, querySelectSeq, e.ID).Scan(&seq)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			res, err := tx.ExecContext(ctx, queryInsertEntry, e.ID, e.Supplier, e.Name, e.Spec, e.Unit, e.Price, r.Document)
			if err != nil {
				return fmt.Errorf("insert entry %s: %w", e.ID, err)
			}
			if seq, err = res.LastInsertId(); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if _, err := tx.ExecContext(ctx, queryUpdateEntry, e.Supplier, e.Name, e.Spec, e.Unit, e.Price, r.Document, seq); err != nil {
				return fmt.Errorf("update entry %s: %w", e.ID, err)
			}
			if _, err := tx.ExecContext(ctx, queryDeleteVec, seq); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, queryInsertVec, seq, blob); err != nil {
			return fmt.Errorf("insert vector %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// Search returns the topK nearest entries. Vectors are unit length, so the
// L2 distance d maps to cosine similarity as 1 - d²/2.
func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, querySearch, blob, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var r domain.SearchResult
		var distance float64
		if err := rows.Scan(&r.Entry.ID, &r.Entry.Supplier, &r.Entry.Name, &r.Entry.Spec, &r.Entry.Unit, &r.Entry.Price, &r.Document, &distance); err != nil {
			return nil, err
		}
		r.Score = 1 - distance*distance/2
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Storage) List(ctx context.Context) ([]domain.PriceEntry, error) {
	rows, err := s.db.QueryContext(ctx, queryListEntries)
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

// Delete removes metadata and vectors for ids in one transaction. Unknown ids
// are ignored.
func (s *Storage) Delete(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range ids {
		var seq int64
		err := tx.QueryRowContext(ctx, querySelectSeq, id).Scan(&seq)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, queryDeleteVec, seq); err != nil {
			return fmt.Errorf("delete vector %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, queryDeleteEntry, seq); err != nil {
			return fmt.Errorf("delete entry %s: %w", id, err)
		}
	}

	return tx.Commit()
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
