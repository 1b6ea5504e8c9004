package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cleared-dev/ledgeraudit/internal/balance"
	"github.com/cleared-dev/ledgeraudit/internal/money"
)

// MovementsHeader is the required first row of a movements file.
const MovementsHeader = "date,entity_type,entity_id,kind,amount,reference"

// MovementsParser parses the native movement history CSV.
type MovementsParser struct{}

const (
	movementsDateFormat = "2006-01-02"
	movementsNumFields  = 6
	movColDate          = 0
	movColEntityType    = 1
	movColEntityID      = 2
	movColKind          = 3
	movColAmount        = 4
	movColReference     = 5
)

// Format returns the parser name.
func (p *MovementsParser) Format() string { return "movements" }

// Parse reads a movements CSV. Rows are returned in file order.
func (p *MovementsParser) Parse(r io.Reader) ([]balance.Movement, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = movementsNumFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading movements CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if got := strings.Join(records[0], ","); got != MovementsHeader {
		return nil, fmt.Errorf("unexpected header %q, want %q", got, MovementsHeader)
	}

	var movements []balance.Movement
	for i, rec := range records[1:] {
		m, err := parseMovementRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		movements = append(movements, m)
	}
	return movements, nil
}

func parseMovementRow(rec []string) (balance.Movement, error) {
	var m balance.Movement

	if s := strings.TrimSpace(rec[movColDate]); s != "" {
		date, err := time.Parse(movementsDateFormat, s)
		if err != nil {
			return m, fmt.Errorf("parsing date %q: %w", s, err)
		}
		m.Date = date
	}

	et, err := balance.ParseEntityType(rec[movColEntityType])
	if err != nil {
		return m, err
	}
	m.EntityType = et
	m.EntityID = strings.TrimSpace(rec[movColEntityID])

	m.Kind = balance.MovementKind(strings.ToLower(strings.TrimSpace(rec[movColKind])))
	if !m.Kind.Known() {
		return m, fmt.Errorf("unknown movement kind %q", rec[movColKind])
	}

	amount, err := money.Parse(strings.TrimSpace(rec[movColAmount]))
	if err != nil {
		return m, fmt.Errorf("parsing amount %q: %w", rec[movColAmount], err)
	}
	m.Amount = amount
	m.Reference = strings.TrimSpace(rec[movColReference])
	return m, nil
}
