// Package store provides an SQLite based store of Collatz results.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ardanlabs/collatz/collatz"
)

const (
	insertSQL = `
INSERT OR REPLACE INTO results (
	m, log2, log3, n, cycle
) VALUES (
	?, ?, ?, ?, ?
)
`

	selectSQL = `
SELECT log2, log3, n, cycle FROM results WHERE m = ?
`

	countSQL = `SELECT COUNT(*) FROM results`

	schemaSQL = `
CREATE TABLE IF NOT EXISTS results (
    m TEXT PRIMARY KEY,
    log2 INTEGER,
    log3 INTEGER,
    n TEXT,
    cycle TEXT
);

CREATE INDEX IF NOT EXISTS results_log2 ON results(log2);
`
)

// DefaultBufferSize is the number of results held before a flush.
const DefaultBufferSize = 1024

// ErrNotFound is returned by Get when there is no result for m.
var ErrNotFound = errors.New("result not found")

// DB is a database of Collatz results.
type DB struct {
	sql    *sql.DB
	stmt   *sql.Stmt
	buffer []*collatz.Result
}

// Open opens the SQLite database in dbFile, creating the schema if needed.
// This API is not thread safe.
func Open(dbFile string) (*DB, error) {
	return OpenSize(dbFile, DefaultBufferSize)
}

// OpenSize is like Open with a custom buffer size.
func OpenSize(dbFile string, size int) (*DB, error) {
	if size < 1 {
		return nil, fmt.Errorf("bad buffer size: %d", size)
	}

	sqlDB, err := sql.Open("sqlite3", dbFile)
	if err != nil {
		return nil, err
	}

	if _, err = sqlDB.Exec(schemaSQL); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	stmt, err := sqlDB.Prepare(insertSQL)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	db := DB{
		sql:    sqlDB,
		stmt:   stmt,
		buffer: make([]*collatz.Result, 0, size),
	}
	return &db, nil
}

// Add stores a result into the buffer. Once the buffer is full, the
// results are flushed to the database.
func (db *DB) Add(r *collatz.Result) error {
	if r == nil {
		return errors.New("nil result")
	}
	// A failed flush leaves the buffer full
	if len(db.buffer) == cap(db.buffer) {
		return errors.New("results buffer is full")
	}

	db.buffer = append(db.buffer, r)
	if len(db.buffer) == cap(db.buffer) {
		if err := db.Flush(); err != nil {
			return fmt.Errorf("unable to flush results: %w", err)
		}
	}

	return nil
}

// Flush inserts pending results into the database.
func (db *DB) Flush() error {
	if len(db.buffer) == 0 {
		return nil
	}

	tx, err := db.sql.Begin()
	if err != nil {
		return err
	}

	stmt := tx.Stmt(db.stmt)
	for _, r := range db.buffer {
		n, err := json.Marshal(r.N())
		if err != nil {
			tx.Rollback()
			return err
		}
		cycle, err := json.Marshal(collatz.FormatInts(r.Cycle()))
		if err != nil {
			tx.Rollback()
			return err
		}

		if _, err := stmt.Exec(r.M().String(), r.Log2(), r.Log3(), string(n), string(cycle)); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	db.buffer = db.buffer[:0]
	return nil
}

// Get loads the result for m. Pending results are flushed first.
func (db *DB) Get(ctx context.Context, m *big.Int) (*collatz.Result, error) {
	if m == nil {
		return nil, collatz.ErrInvalidInput
	}
	if err := db.Flush(); err != nil {
		return nil, err
	}

	var (
		log2, log3 int
		nText      string
		cycleText  string
	)
	row := db.sql.QueryRowContext(ctx, selectSQL, m.String())
	if err := row.Scan(&log2, &log3, &nText, &cycleText); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%v: %w", m, ErrNotFound)
		}
		return nil, err
	}

	var n []int
	if err := json.Unmarshal([]byte(nText), &n); err != nil {
		return nil, fmt.Errorf("%v: bad n: %w", m, err)
	}
	var strs []string
	if err := json.Unmarshal([]byte(cycleText), &strs); err != nil {
		return nil, fmt.Errorf("%v: bad cycle: %w", m, err)
	}
	cycle, err := collatz.ParseInts(strs)
	if err != nil {
		return nil, fmt.Errorf("%v: bad cycle: %w", m, err)
	}

	return collatz.New(m, log2, log3, n, cycle)
}

// Count returns the number of stored results, including pending ones.
func (db *DB) Count(ctx context.Context) (int, error) {
	if err := db.Flush(); err != nil {
		return 0, err
	}

	var count int
	if err := db.sql.QueryRowContext(ctx, countSQL).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Close flushes all results to the database and releases it.
func (db *DB) Close() (err error) {
	defer func() {
		if cerr := db.sql.Close(); cerr != nil {
			err = cerr
		}
	}()

	defer func() {
		if serr := db.stmt.Close(); serr != nil {
			err = serr
		}
	}()

	if err := db.Flush(); err != nil {
		return err
	}

	return nil
}
