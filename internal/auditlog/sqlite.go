package auditlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/cleared-dev/ledgeraudit/internal/audit"
)

// Schema creates the audit history tables.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_results (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    transaction_type TEXT NOT NULL,
    status TEXT NOT NULL,              -- 'pass' or 'fail'
    audited_at TEXT NOT NULL,          -- RFC 3339, UTC
    payload TEXT NOT NULL              -- result as JSON
);

CREATE TABLE IF NOT EXISTS audit_issues (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    result_id TEXT NOT NULL REFERENCES audit_results(id),
    code TEXT NOT NULL,
    severity TEXT NOT NULL,
    is_warning INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_results_status
    ON audit_results(status);

CREATE INDEX IF NOT EXISTS idx_audit_issues_code
    ON audit_issues(code);
`

// SQLiteStore keeps audit results in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema. Foreign keys and WAL mode are enabled.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save inserts res and its issues in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, res audit.Result) error {
	if res.ID == "" {
		return &PersistenceError{Op: "save", Err: errors.New("result has no id")}
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return &PersistenceError{Op: "encode", AuditID: res.ID, Err: err}
	}

	err = s.transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO audit_results (id, transaction_type, status, audited_at, payload)
			VALUES (?, ?, ?, ?, ?)`,
			res.ID, res.TransactionType, string(res.Status),
			res.Timestamp.UTC().Format(time.RFC3339Nano), string(payload))
		if err != nil {
			return fmt.Errorf("inserting result: %w", err)
		}

		for _, group := range []struct {
			issues  []audit.Issue
			warning int
		}{{res.Errors, 0}, {res.Warnings, 1}} {
			for _, is := range group.issues {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO audit_issues (result_id, code, severity, is_warning)
					VALUES (?, ?, ?, ?)`,
					res.ID, string(is.Code), string(is.Severity), group.warning); err != nil {
					return fmt.Errorf("inserting issue %s: %w", is.Code, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return &PersistenceError{Op: "save", AuditID: res.ID, Err: err}
	}
	return nil
}

// Load returns every stored result in insertion order.
func (s *SQLiteStore) Load(ctx context.Context) ([]audit.Result, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM audit_results ORDER BY seq`)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	defer rows.Close()

	var results []audit.Result
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, &PersistenceError{Op: "load", Err: fmt.Errorf("scanning result: %w", err)}
		}
		var res audit.Result
		if err := json.Unmarshal([]byte(payload), &res); err != nil {
			return nil, &PersistenceError{Op: "load", Err: fmt.Errorf("decoding result: %w", err)}
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	return results, nil
}

// CodeCounts returns how often each code was stored as an error, most
// frequent first.
func (s *SQLiteStore) CodeCounts(ctx context.Context) ([]CodeCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, COUNT(*) AS n, MIN(id) AS first_seen
		FROM audit_issues
		WHERE is_warning = 0
		GROUP BY code
		ORDER BY n DESC, first_seen ASC`)
	if err != nil {
		return nil, fmt.Errorf("counting codes: %w", err)
	}
	defer rows.Close()

	var counts []CodeCount
	for rows.Next() {
		var (
			code      string
			cc        CodeCount
			firstSeen int64
		)
		if err := rows.Scan(&code, &cc.Count, &firstSeen); err != nil {
			return nil, fmt.Errorf("scanning code count: %w", err)
		}
		cc.Code = audit.Code(code)
		counts = append(counts, cc)
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%v, rollback: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
