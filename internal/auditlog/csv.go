package auditlog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cleared-dev/ledgeraudit/internal/audit"
)

// Header is the CSV header for the audit log file.
const Header = "id,timestamp,transaction_type,status,errors,warnings,recommendations"

const (
	numFields      = 7
	colID          = 0
	colTimestamp   = 1
	colType        = 2
	colStatus      = 3
	colErrors      = 4
	colWarnings    = 5
	colRecommended = 6
)

// CSVStore appends audit results to a CSV file, one row per result. Issue
// lists are stored as JSON inside their cells.
type CSVStore struct {
	mu   sync.Mutex
	path string
}

// NewCSVStore returns a store writing to path. The file and its directory are
// created on first save.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Save appends res to the file, writing the header if the file is new.
func (s *CSVStore) Save(_ context.Context, res audit.Result) error {
	row, err := MarshalResult(res)
	if err != nil {
		return &PersistenceError{Op: "encode", AuditID: res.ID, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &PersistenceError{Op: "save", AuditID: res.ID, Err: fmt.Errorf("creating log dir: %w", err)}
	}

	needsHeader := false
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &PersistenceError{Op: "save", AuditID: res.ID, Err: fmt.Errorf("opening audit log: %w", err)}
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return &PersistenceError{Op: "save", AuditID: res.ID, Err: fmt.Errorf("writing header: %w", err)}
		}
	}
	if err := cw.Write(row); err != nil {
		return &PersistenceError{Op: "save", AuditID: res.ID, Err: fmt.Errorf("writing row: %w", err)}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return &PersistenceError{Op: "save", AuditID: res.ID, Err: err}
	}
	return nil
}

// Load reads every result in the file. A missing file yields no results.
func (s *CSVStore) Load(_ context.Context) ([]audit.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: fmt.Errorf("opening audit log: %w", err)}
	}
	defer f.Close()

	results, err := ReadResults(f)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	return results, nil
}

// Close is a no-op; the file is opened per write.
func (s *CSVStore) Close() error { return nil }

// ReadResults reads a whole audit log CSV, header included.
func ReadResults(r io.Reader) ([]audit.Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var results []audit.Result
	for i, rec := range records[1:] {
		res, err := UnmarshalResult(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// MarshalResult converts a Result to a CSV row.
func MarshalResult(res audit.Result) ([]string, error) {
	errs, err := json.Marshal(res.Errors)
	if err != nil {
		return nil, fmt.Errorf("encoding errors: %w", err)
	}
	warns, err := json.Marshal(res.Warnings)
	if err != nil {
		return nil, fmt.Errorf("encoding warnings: %w", err)
	}
	recs, err := json.Marshal(res.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("encoding recommendations: %w", err)
	}

	row := make([]string, numFields)
	row[colID] = res.ID
	row[colTimestamp] = res.Timestamp.UTC().Format(time.RFC3339Nano)
	row[colType] = res.TransactionType
	row[colStatus] = string(res.Status)
	row[colErrors] = string(errs)
	row[colWarnings] = string(warns)
	row[colRecommended] = string(recs)
	return row, nil
}

// UnmarshalResult converts a CSV row to a Result.
func UnmarshalResult(record []string) (audit.Result, error) {
	if len(record) != numFields {
		return audit.Result{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339Nano, record[colTimestamp])
	if err != nil {
		return audit.Result{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	res := audit.Result{
		ID:              record[colID],
		Timestamp:       ts,
		TransactionType: record[colType],
		Status:          audit.Status(record[colStatus]),
	}
	if err := json.Unmarshal([]byte(record[colErrors]), &res.Errors); err != nil {
		return audit.Result{}, fmt.Errorf("parsing errors: %w", err)
	}
	if err := json.Unmarshal([]byte(record[colWarnings]), &res.Warnings); err != nil {
		return audit.Result{}, fmt.Errorf("parsing warnings: %w", err)
	}
	if err := json.Unmarshal([]byte(record[colRecommended]), &res.Recommendations); err != nil {
		return audit.Result{}, fmt.Errorf("parsing recommendations: %w", err)
	}
	return res, nil
}
