package auditlog

import (
	"context"
	"fmt"

	"github.com/cleared-dev/ledgeraudit/internal/audit"
)

// Store persists audit results beyond the in-memory window.
type Store interface {
	Save(ctx context.Context, res audit.Result) error
	// Load returns every stored result, oldest first.
	Load(ctx context.Context) ([]audit.Result, error)
	Close() error
}

// Store drivers accepted by Open.
const (
	DriverNone   = "none"
	DriverCSV    = "csv"
	DriverSQLite = "sqlite"
)

// PersistenceError reports a failed write or read of the audit history.
type PersistenceError struct {
	Op      string
	AuditID string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.AuditID != "" {
		return fmt.Sprintf("audit log %s %s: %v", e.Op, e.AuditID, e.Err)
	}
	return fmt.Sprintf("audit log %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Open returns the store for driver, or nil for DriverNone.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", DriverNone:
		return nil, nil
	case DriverCSV:
		return NewCSVStore(path), nil
	case DriverSQLite:
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown audit store driver %q", driver)
	}
}
