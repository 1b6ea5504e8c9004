package model

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgeraudit/internal/money"
)

// Kind tags a transaction variant.
type Kind string

const (
	KindSale            Kind = "sale"
	KindPayment         Kind = "payment"
	KindGLBatch         Kind = "gl_batch"
	KindStockAdjustment Kind = "stock_adjustment"
)

// Transaction is one of Sale, Payment, GLBatch, StockAdjustment or
// Unrecognized. The set is closed: only this package can add variants.
type Transaction interface {
	Kind() Kind
	isTransaction()
}

// SaleLine is one line of a sale.
type SaleLine struct {
	Quantity decimal.Decimal
}

// Sale is a sales invoice with VAT computed on the discounted subtotal.
type Sale struct {
	Subtotal money.Money
	Discount money.Money
	VAT      money.Money
	Total    money.Money
	VATRate  money.Rate
	Lines    []SaleLine
}

func (Sale) Kind() Kind     { return KindSale }
func (Sale) isTransaction() {}

// Net returns subtotal - discount.
func (s Sale) Net() money.Money {
	return s.Subtotal.Sub(s.Discount)
}

// ExpectedVAT returns round(net * vat_rate, 2).
func (s Sale) ExpectedVAT() money.Money {
	return money.PercentOf(s.Net(), s.VATRate)
}

// ExpectedTotal returns net + expected VAT.
func (s Sale) ExpectedTotal() money.Money {
	return s.Net().Add(s.ExpectedVAT())
}

// Direction is the flow of a payment relative to the business.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Valid reports whether d is IN or OUT.
func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// Payment moves money between the business and a customer, supplier or partner.
type Payment struct {
	Amount     money.Money
	Direction  Direction
	EntityType string
	EntityID   string
}

func (Payment) Kind() Kind     { return KindPayment }
func (Payment) isTransaction() {}

// GLEntry is one line of a general-ledger batch.
type GLEntry struct {
	AccountCode string
	Debit       money.Money // zero if credit side
	Credit      money.Money // zero if debit side
	Description string
}

// GLBatch is a group of entries that must balance.
type GLBatch struct {
	Entries []GLEntry
}

func (GLBatch) Kind() Kind     { return KindGLBatch }
func (GLBatch) isTransaction() {}

// Totals returns the summed debit and credit sides.
func (b GLBatch) Totals() (debit, credit money.Money) {
	debit, credit = money.Zero, money.Zero
	for _, e := range b.Entries {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
	}
	return debit, credit
}

// StockAdjustment corrects an inventory quantity.
type StockAdjustment struct {
	AdjustmentQty int64
	Reason        string
}

func (StockAdjustment) Kind() Kind     { return KindStockAdjustment }
func (StockAdjustment) isTransaction() {}

// Unrecognized is a well-formed transaction whose tag this version does not know.
type Unrecognized struct {
	Type string
}

func (u Unrecognized) Kind() Kind   { return Kind(u.Type) }
func (Unrecognized) isTransaction() {}
