package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/dogfacts/dogfacts/internal/errors"
	"github.com/dogfacts/dogfacts/internal/fact"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// SQLiteStore keeps the collection in a SQLite table, one row per fact.
// Position preserves collection order; description_key enforces uniqueness.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pragmas in connection string (applies to all connections)
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: transactions from concurrent Update calls queue up
	// instead of failing with SQLITE_BUSY on lock upgrade.
	db.SetMaxOpenConns(1)

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(path, 0600)

	return &SQLiteStore{db: db}, nil
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS facts (
		  position        INTEGER PRIMARY KEY,
		  description     TEXT NOT NULL,
		  description_key TEXT NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_facts_description_key
		ON facts(description_key);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Load returns all facts ordered by position.
func (s *SQLiteStore) Load(ctx context.Context) ([]fact.Fact, error) {
	if err := checkContext(ctx, "load"); err != nil {
		return nil, err
	}
	return loadRows(ctx, s.db)
}

// Save replaces every row in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, facts []fact.Fact) error {
	return s.Update(ctx, func([]fact.Fact) ([]fact.Fact, error) {
		return facts, nil
	})
}

// Update runs load, fn and rewrite inside a single transaction.
func (s *SQLiteStore) Update(ctx context.Context, fn MutateFunc) error {
	if err := checkContext(ctx, "update"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStoreUnavailable(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	current, err := loadRows(ctx, tx)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if err := replaceRows(ctx, tx, next); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStoreUnavailable(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// Init inserts facts if the table is empty.
func (s *SQLiteStore) Init(ctx context.Context, facts []fact.Fact) (bool, error) {
	seeded := false
	err := s.Update(ctx, func(current []fact.Fact) ([]fact.Fact, error) {
		if len(current) > 0 {
			return current, nil
		}
		seeded = true
		return facts, nil
	})
	if err != nil {
		return false, err
	}
	return seeded, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func loadRows(ctx context.Context, q querier) ([]fact.Fact, error) {
	rows, err := q.QueryContext(ctx, `SELECT description FROM facts ORDER BY position`)
	if err != nil {
		return nil, errors.NewStoreUnavailable(fmt.Errorf("query facts: %w", err))
	}
	defer rows.Close()

	facts := []fact.Fact{}
	for rows.Next() {
		var f fact.Fact
		if err := rows.Scan(&f.Description); err != nil {
			return nil, errors.NewStoreUnavailable(fmt.Errorf("scan fact: %w", err))
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	return facts, nil
}

func replaceRows(ctx context.Context, q querier, facts []fact.Fact) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM facts`); err != nil {
		return errors.NewStoreUnavailable(fmt.Errorf("clear facts: %w", err))
	}
	for i, f := range facts {
		_, err := q.ExecContext(ctx,
			`INSERT INTO facts (position, description, description_key) VALUES (?, ?, ?)`,
			i, f.Description, f.Key(),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return errors.NewDuplicateFact(f.Description)
			}
			return errors.NewStoreUnavailable(fmt.Errorf("insert fact: %w", err))
		}
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
