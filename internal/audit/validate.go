// Package audit checks transactions against bookkeeping rules and classifies
// every violation into a fixed taxonomy of issue codes.
package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/ledgeraudit/internal/model"
	"github.com/cleared-dev/ledgeraudit/internal/money"
)

// LargeAdjustmentThreshold is the absolute stock quantity above which an
// adjustment is flagged for review.
const LargeAdjustmentThreshold = 100

// UnknownType is reported for a nil transaction.
const UnknownType = "unknown"

// Validate audits tx and stamps the result with the current time.
func Validate(tx model.Transaction) Result {
	return ValidateAt(tx, time.Now())
}

// ValidateAt audits tx and stamps the result with ts. It never fails: every
// violation is returned as an issue inside the result.
func ValidateAt(tx model.Transaction, ts time.Time) Result {
	var c collector
	switch t := tx.(type) {
	case model.Sale:
		checkSale(&c, t)
	case model.Payment:
		checkPayment(&c, t)
	case model.GLBatch:
		checkGLBatch(&c, t)
	case model.StockAdjustment:
		checkStockAdjustment(&c, t)
	case model.Unrecognized:
		// Newer transaction kinds pass untouched.
	case nil:
		return c.result(UnknownType, ts)
	}
	return c.result(string(tx.Kind()), ts)
}

func checkSale(c *collector, s model.Sale) {
	expectedVAT := s.ExpectedVAT()
	if !money.Within(s.VAT, expectedVAT) {
		c.add(CodeVATCalcError,
			fmt.Sprintf("VAT mismatch: expected %s, got %s", expectedVAT, s.VAT),
			map[string]any{
				"expected":   expectedVAT,
				"actual":     s.VAT,
				"difference": s.VAT.Sub(expectedVAT).Abs(),
				"vat_rate":   s.VATRate,
			})
	}

	expectedTotal := s.ExpectedTotal()
	if !money.Within(s.Total, expectedTotal) {
		c.add(CodeTotalCalcError,
			fmt.Sprintf("Total mismatch: expected %s, got %s", expectedTotal, s.Total),
			map[string]any{
				"expected":   expectedTotal,
				"actual":     s.Total,
				"difference": s.Total.Sub(expectedTotal).Abs(),
			})
	}

	if s.Subtotal.IsZero() {
		c.add(CodeZeroSale, "Sale has a zero subtotal", map[string]any{
			"subtotal": s.Subtotal,
		})
	}

	if s.Discount.GreaterThan(s.Subtotal) {
		c.add(CodeInvalidDiscount,
			fmt.Sprintf("Discount %s exceeds subtotal %s", s.Discount, s.Subtotal),
			map[string]any{
				"discount": s.Discount,
				"subtotal": s.Subtotal,
			})
	}

	for i, line := range s.Lines {
		if line.Quantity.IsPositive() {
			continue
		}
		c.add(CodeInvalidQuantity,
			fmt.Sprintf("Line %d has non-positive quantity %s", i+1, line.Quantity),
			map[string]any{
				"line":     i + 1,
				"quantity": line.Quantity.String(),
			})
	}
}

func checkPayment(c *collector, p model.Payment) {
	if !p.Amount.IsPositive() {
		c.add(CodeInvalidAmount,
			fmt.Sprintf("Payment amount must be positive, got %s", p.Amount),
			map[string]any{"amount": p.Amount})
	}

	if !p.Direction.Valid() {
		c.add(CodeInvalidDirection,
			fmt.Sprintf("Payment direction %q is not IN or OUT", p.Direction),
			map[string]any{"direction": string(p.Direction)})
	}

	if strings.TrimSpace(p.EntityType) == "" || strings.TrimSpace(p.EntityID) == "" {
		c.add(CodeMissingEntity, "Payment is not linked to an entity", map[string]any{
			"entity_type": p.EntityType,
			"entity_id":   p.EntityID,
		})
	}
}

func checkGLBatch(c *collector, b model.GLBatch) {
	if len(b.Entries) == 0 {
		c.add(CodeEmptyBatch, "GL batch has no entries", map[string]any{"entry_count": 0})
		return
	}

	totalDebit, totalCredit := money.Zero, money.Zero
	for i, e := range b.Entries {
		totalDebit = totalDebit.Add(e.Debit)
		totalCredit = totalCredit.Add(e.Credit)

		if e.Debit.IsPositive() && e.Credit.IsPositive() {
			c.add(CodeBothDebitCredit,
				fmt.Sprintf("Entry %d (account %s) has both debit and credit", i+1, e.AccountCode),
				map[string]any{
					"entry":        i + 1,
					"account_code": e.AccountCode,
					"debit":        e.Debit,
					"credit":       e.Credit,
				})
		}
	}

	if !money.Within(totalDebit, totalCredit) {
		c.add(CodeUnbalancedBatch,
			fmt.Sprintf("Batch unbalanced: debits %s, credits %s", totalDebit, totalCredit),
			map[string]any{
				"total_debit":  totalDebit,
				"total_credit": totalCredit,
				"difference":   totalDebit.Sub(totalCredit),
			})
	}
}

func checkStockAdjustment(c *collector, a model.StockAdjustment) {
	qty := a.AdjustmentQty
	if qty > LargeAdjustmentThreshold || qty < -LargeAdjustmentThreshold {
		c.add(CodeLargeAdjustment,
			fmt.Sprintf("Adjustment of %d units exceeds %d", qty, LargeAdjustmentThreshold),
			map[string]any{
				"adjustment_qty": qty,
				"threshold":      LargeAdjustmentThreshold,
			})
	}

	if strings.TrimSpace(a.Reason) == "" {
		c.add(CodeNoReason, "Stock adjustment has no reason", nil)
	}
}
