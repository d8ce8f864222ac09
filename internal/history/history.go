// Package history records evaluated expressions in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/zephyrtronium/calc"
)

// Record is one evaluation.
type Record struct {
	ID int64
	// Hash identifies the expression independent of whitespace.
	Hash string
	// Expr is the expression as the user wrote it.
	Expr string
	// Value is the result. It is meaningless if Kind is not KindNone.
	Value float64
	// RPN is the postfix trace of a successful evaluation.
	RPN string
	// Kind and Error describe a failed evaluation.
	Kind      calc.Kind
	Error     string
	CreatedAt time.Time
}

// OK reports whether the evaluation succeeded.
func (r *Record) OK() bool {
	return r.Kind == calc.KindNone && r.Error == ""
}

// Hash returns the fingerprint of an expression: the xxhash of its
// whitespace-stripped form in hex.
func Hash(expr string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(calc.StripSpace(expr)))
}

// FromResult creates a record from the outcome of calc.Evaluate.
func FromResult(expr string, r calc.Result, err error) Record {
	rec := Record{
		Hash:      Hash(expr),
		Expr:      expr,
		CreatedAt: time.Now().UTC(),
	}
	if err != nil {
		rec.Kind = calc.KindOf(err)
		rec.Error = err.Error()
		return rec
	}
	rec.Value = r.Value
	rec.RPN = r.Trace.String()
	return rec
}

// Store is a history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS evaluations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hash TEXT NOT NULL,
		expr TEXT NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		rpn TEXT NOT NULL DEFAULT '',
		kind INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_evaluations_hash ON evaluations(hash);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Add inserts a record and returns its ID. Values are stored as text so that
// infinities and NaN survive.
func (s *Store) Add(ctx context.Context, r Record) (int64, error) {
	if r.Hash == "" {
		r.Hash = Hash(r.Expr)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO evaluations (hash, expr, value, rpn, kind, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Hash, r.Expr, formatValue(r), r.RPN, int(r.Kind), r.Error, r.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert evaluation: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to n records, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, hash, expr, value, rpn, kind, error, created_at FROM evaluations ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	return scanRecords(rows)
}

// ByExpr returns every record of the expression, ignoring whitespace, oldest
// first.
func (s *Store) ByExpr(ctx context.Context, expr string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, hash, expr, value, rpn, kind, error, created_at FROM evaluations WHERE hash = ? ORDER BY id`, Hash(expr))
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var r []Record
	for rows.Next() {
		var (
			rec   Record
			value string
			kind  int
		)
		if err := rows.Scan(&rec.ID, &rec.Hash, &rec.Expr, &value, &rec.RPN, &kind, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		rec.Kind = calc.Kind(kind)
		if rec.OK() {
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("bad value %q in evaluation %d: %w", value, rec.ID, err)
			}
			rec.Value = v
		}
		r = append(r, rec)
	}
	return r, rows.Err()
}

func formatValue(r Record) string {
	if !r.OK() {
		return ""
	}
	return strconv.FormatFloat(r.Value, 'g', -1, 64)
}
