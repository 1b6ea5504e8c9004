// Package payload decodes JSON transaction payloads into model variants.
//
// A payload is a JSON object tagged by "type". Business-rule problems (a
// negative amount, a discount above the subtotal) decode fine and are left
// to the validator. Only payloads that match no transaction shape are
// rejected here, with an *InvalidInputError.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgeraudit/internal/model"
	"github.com/cleared-dev/ledgeraudit/internal/money"
)

// ErrInvalidInput matches every *InvalidInputError with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports a payload that does not match any transaction shape.
type InvalidInputError struct {
	Field  string // JSON path of the offending field, empty for the whole payload
	Reason string
	Err    error
}

func (e *InvalidInputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
	}
	return "invalid input: " + e.Reason
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(field, reason string, err error) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: reason, Err: err}
}

// Decoder turns raw JSON into transactions.
type Decoder struct {
	// DefaultVATRate applies to sales that carry no vat_rate.
	DefaultVATRate money.Rate
	validate       *validator.Validate
}

// NewDecoder returns a Decoder using defaultVATRate for sales without a rate.
func NewDecoder(defaultVATRate money.Rate) *Decoder {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Decoder{DefaultVATRate: defaultVATRate, validate: v}
}

// Decode reads a single transaction object.
func (d *Decoder) Decode(raw []byte) (model.Transaction, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, invalid("", "payload must be a JSON object", nil)
	}

	var env struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, decodeError(err)
	}
	if env.Type == nil || strings.TrimSpace(*env.Type) == "" {
		return nil, invalid("type", "missing transaction type", nil)
	}

	switch kind := model.Kind(strings.TrimSpace(*env.Type)); kind {
	case model.KindSale:
		var p salePayload
		if err := d.unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p.transaction(d.DefaultVATRate), nil
	case model.KindPayment:
		var p paymentPayload
		if err := d.unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p.transaction(), nil
	case model.KindGLBatch:
		var p glBatchPayload
		if err := d.unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p.transaction(), nil
	case model.KindStockAdjustment:
		var p stockAdjustmentPayload
		if err := d.unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p.transaction(), nil
	default:
		return model.Unrecognized{Type: string(kind)}, nil
	}
}

// DecodeAll reads either one transaction object or an array of them.
func (d *Decoder) DecodeAll(raw []byte) ([]model.Transaction, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		tx, err := d.Decode(raw)
		if err != nil {
			return nil, err
		}
		return []model.Transaction{tx}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, decodeError(err)
	}
	txs := make([]model.Transaction, 0, len(items))
	for i, item := range items {
		tx, err := d.Decode(item)
		if err != nil {
			return nil, fmt.Errorf("payload %d: %w", i, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (d *Decoder) unmarshal(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return decodeError(err)
	}
	if err := d.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return invalid(fieldPath(fe.Namespace()), "failed "+fe.Tag()+" check", err)
		}
		return invalid("", err.Error(), err)
	}
	return nil
}

// fieldPath drops the struct name validator puts in front of the namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return invalid(typeErr.Field, fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value), err)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return invalid("", fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset), err)
	}
	return invalid("", err.Error(), err)
}

type salePayload struct {
	Subtotal *money.Money  `json:"subtotal" validate:"required"`
	Discount *money.Money  `json:"discount"`
	VAT      *money.Money  `json:"vat" validate:"required"`
	Total    *money.Money  `json:"total" validate:"required"`
	VATRate  *money.Rate   `json:"vat_rate"`
	Lines    []linePayload `json:"lines" validate:"omitempty,dive"`
}

type linePayload struct {
	Quantity *decimal.Decimal `json:"quantity" validate:"required"`
}

func (p salePayload) transaction(defaultRate money.Rate) model.Sale {
	s := model.Sale{
		Subtotal: *p.Subtotal,
		Discount: orZero(p.Discount),
		VAT:      *p.VAT,
		Total:    *p.Total,
		VATRate:  defaultRate,
	}
	if p.VATRate != nil {
		s.VATRate = *p.VATRate
	}
	for _, l := range p.Lines {
		s.Lines = append(s.Lines, model.SaleLine{Quantity: *l.Quantity})
	}
	return s
}

type paymentPayload struct {
	Amount     *money.Money `json:"amount"`
	Direction  string       `json:"direction"`
	EntityType string       `json:"entity_type"`
	EntityID   entityID     `json:"entity_id"`
}

func (p paymentPayload) transaction() model.Payment {
	return model.Payment{
		Amount:     orZero(p.Amount),
		Direction:  model.Direction(p.Direction),
		EntityType: strings.TrimSpace(p.EntityType),
		EntityID:   strings.TrimSpace(string(p.EntityID)),
	}
}

type glBatchPayload struct {
	Entries []glEntryPayload `json:"entries" validate:"required,dive"`
}

type glEntryPayload struct {
	AccountCode string       `json:"account_code" validate:"required"`
	Debit       *money.Money `json:"debit"`
	Credit      *money.Money `json:"credit"`
	Description string       `json:"description"`
}

func (p glBatchPayload) transaction() model.GLBatch {
	b := model.GLBatch{Entries: make([]model.GLEntry, 0, len(p.Entries))}
	for _, e := range p.Entries {
		b.Entries = append(b.Entries, model.GLEntry{
			AccountCode: e.AccountCode,
			Debit:       orZero(e.Debit),
			Credit:      orZero(e.Credit),
			Description: e.Description,
		})
	}
	return b
}

type stockAdjustmentPayload struct {
	AdjustmentQty *int64 `json:"adjustment_qty" validate:"required"`
	Reason        string `json:"reason"`
}

func (p stockAdjustmentPayload) transaction() model.StockAdjustment {
	return model.StockAdjustment{AdjustmentQty: *p.AdjustmentQty, Reason: p.Reason}
}

func orZero(m *money.Money) money.Money {
	if m == nil {
		return money.Zero
	}
	return *m
}

// entityID accepts either a JSON string or a JSON number.
type entityID string

func (id *entityID) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = entityID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return &json.UnmarshalTypeError{Value: string(data), Type: reflect.TypeOf("")}
		}
		*id = entityID(n.String())
	}
	return nil
}
