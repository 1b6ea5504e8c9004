package audit

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgeraudit/internal/model"
	"github.com/cleared-dev/ledgeraudit/internal/money"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func dec(s string) money.Money { return money.MustParse(s) }

func sale(subtotal, discount, vat, total string) model.Sale {
	return model.Sale{
		Subtotal: dec(subtotal),
		Discount: dec(discount),
		VAT:      dec(vat),
		Total:    dec(total),
		VATRate:  money.MustParseRate("0.16"),
	}
}

func codes(issues []Issue) []Code {
	out := make([]Code, len(issues))
	for i, is := range issues {
		out[i] = is.Code
	}
	return out
}

func detailMoney(t *testing.T, is Issue, key string) string {
	t.Helper()
	v, ok := is.Detail[key].(money.Money)
	require.True(t, ok, "detail %q should be money, got %T", key, is.Detail[key])
	return v.String()
}

func TestValidate_ScenarioA_CorrectSale(t *testing.T) {
	res := ValidateAt(sale("1000", "0", "160", "1160"), testTime)
	assert.Equal(t, StatusPass, res.Status)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "sale", res.TransactionType)
}

func TestValidate_ScenarioB_WrongVAT(t *testing.T) {
	res := ValidateAt(sale("1000", "0", "100", "1100"), testTime)
	assert.Equal(t, StatusFail, res.Status)
	require.Equal(t, []Code{CodeVATCalcError, CodeTotalCalcError}, codes(res.Errors))

	vat := res.Errors[0]
	assert.Equal(t, SeverityHigh, vat.Severity)
	assert.Equal(t, "160.00", detailMoney(t, vat, "expected"))
	assert.Equal(t, "100.00", detailMoney(t, vat, "actual"))
	assert.Equal(t, "60.00", detailMoney(t, vat, "difference"))

	total := res.Errors[1]
	assert.Equal(t, SeverityCritical, total.Severity)
	assert.Equal(t, "1160.00", detailMoney(t, total, "expected"))
	assert.Equal(t, "1100.00", detailMoney(t, total, "actual"))
}

func TestValidate_ScenarioC_UnbalancedBatch(t *testing.T) {
	batch := model.GLBatch{Entries: []model.GLEntry{
		{AccountCode: "1010", Debit: dec("500")},
		{AccountCode: "4010", Credit: dec("450")},
	}}
	res := ValidateAt(batch, testTime)
	assert.Equal(t, StatusFail, res.Status)
	require.Equal(t, []Code{CodeUnbalancedBatch}, codes(res.Errors))

	is := res.Errors[0]
	assert.Equal(t, SeverityCritical, is.Severity)
	assert.Equal(t, "500.00", detailMoney(t, is, "total_debit"))
	assert.Equal(t, "450.00", detailMoney(t, is, "total_credit"))
	assert.Equal(t, "50.00", detailMoney(t, is, "difference"))
}

func TestValidate_ScenarioD_ZeroPayment(t *testing.T) {
	res := ValidateAt(model.Payment{
		Amount:     dec("0"),
		Direction:  model.DirectionIn,
		EntityType: "customer",
		EntityID:   "5",
	}, testTime)
	assert.Equal(t, StatusFail, res.Status)
	require.Equal(t, []Code{CodeInvalidAmount}, codes(res.Errors))
	assert.Equal(t, SeverityCritical, res.Errors[0].Severity)
}

func TestValidate_ScenarioE_LargeAdjustmentNoReason(t *testing.T) {
	res := ValidateAt(model.StockAdjustment{AdjustmentQty: 150}, testTime)
	assert.Equal(t, StatusPass, res.Status)
	assert.Empty(t, res.Errors)
	assert.Equal(t, []Code{CodeLargeAdjustment, CodeNoReason}, codes(res.Warnings))
}

func TestValidate_EmptyBatch(t *testing.T) {
	res := ValidateAt(model.GLBatch{}, testTime)
	assert.Equal(t, StatusFail, res.Status)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, CodeEmptyBatch, res.Errors[0].Code)
	assert.Equal(t, SeverityCritical, res.Errors[0].Severity)
	assert.Empty(t, res.Warnings)
}

func TestValidate_BatchBalanceProperty(t *testing.T) {
	tests := []struct {
		name     string
		entries  []model.GLEntry
		wantFail bool
	}{
		{"balanced", []model.GLEntry{{Debit: dec("100")}, {Credit: dec("100")}}, false},
		{"within tolerance", []model.GLEntry{{Debit: dec("100.01")}, {Credit: dec("100")}}, false},
		{"just outside tolerance", []model.GLEntry{{Debit: dec("100.02")}, {Credit: dec("100")}}, true},
		{"credit heavy", []model.GLEntry{{Debit: dec("10")}, {Credit: dec("30")}}, true},
		{"multi leg", []model.GLEntry{{Debit: dec("60")}, {Debit: dec("40")}, {Credit: dec("100")}}, false},
		{"both sides balanced", []model.GLEntry{{Debit: dec("25"), Credit: dec("25")}}, false},
		{"empty", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateAt(model.GLBatch{Entries: tt.entries}, testTime)
			assert.Equal(t, tt.wantFail, res.Failed())
		})
	}
}

func TestValidate_BothDebitCreditIsWarning(t *testing.T) {
	batch := model.GLBatch{Entries: []model.GLEntry{
		{AccountCode: "1010", Debit: dec("25"), Credit: dec("25")},
		{AccountCode: "5020", Debit: dec("10"), Credit: dec("10")},
	}}
	res := ValidateAt(batch, testTime)
	assert.Equal(t, StatusPass, res.Status)
	assert.Equal(t, []Code{CodeBothDebitCredit, CodeBothDebitCredit}, codes(res.Warnings))
	assert.Equal(t, "5020", res.Warnings[1].Detail["account_code"])
	assert.Equal(t, 2, res.Warnings[1].Detail["entry"])
}

func TestValidate_VATRoundTrip(t *testing.T) {
	rate := money.MustParseRate("0.16")
	amounts := []struct{ subtotal, discount string }{
		{"1000", "0"},
		{"999.99", "0"},
		{"12.34", "1.01"},
		{"0.05", "0"},
		{"250000", "12500.50"},
		{"3.33", "3.33"},
	}
	for _, a := range amounts {
		s := model.Sale{Subtotal: dec(a.subtotal), Discount: dec(a.discount), VATRate: rate}
		net := s.Subtotal.Sub(s.Discount)
		s.VAT = money.Round2(money.FromDecimal(net.Decimal().Mul(rate.Decimal())))
		s.Total = net.Add(s.VAT)

		res := ValidateAt(s, testTime)
		assert.Empty(t, res.Errors, "sale %s - %s", a.subtotal, a.discount)
	}
}

func TestValidate_SaleRules(t *testing.T) {
	tests := []struct {
		name         string
		sale         model.Sale
		wantErrors   []Code
		wantWarnings []Code
	}{
		{
			name:       "vat off by one cent is tolerated",
			sale:       sale("1000", "0", "160.01", "1160.01"),
			wantErrors: []Code{},
		},
		{
			name:       "total only wrong",
			sale:       sale("1000", "0", "160", "1170"),
			wantErrors: []Code{CodeTotalCalcError},
		},
		{
			name:         "zero sale warns",
			sale:         sale("0", "0", "0", "0"),
			wantErrors:   []Code{},
			wantWarnings: []Code{CodeZeroSale},
		},
		{
			name:       "discount exceeds subtotal",
			sale:       sale("100", "150", "-8", "-58"),
			wantErrors: []Code{CodeInvalidDiscount},
		},
		{
			name:       "discounted sale",
			sale:       sale("1000", "100", "144", "1044"),
			wantErrors: []Code{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateAt(tt.sale, testTime)
			assert.Equal(t, tt.wantErrors, codes(res.Errors))
			if tt.wantWarnings == nil {
				tt.wantWarnings = []Code{}
			}
			assert.Equal(t, tt.wantWarnings, codes(res.Warnings))
		})
	}
}

func TestValidate_InvalidQuantityPerLine(t *testing.T) {
	s := sale("1000", "0", "160", "1160")
	s.Lines = []model.SaleLine{
		{Quantity: decimal.NewFromInt(2)},
		{Quantity: decimal.Zero},
		{Quantity: decimal.NewFromInt(-1)},
		{Quantity: decimal.RequireFromString("0.5")},
	}
	res := ValidateAt(s, testTime)
	require.Equal(t, []Code{CodeInvalidQuantity, CodeInvalidQuantity}, codes(res.Errors))
	assert.Equal(t, 2, res.Errors[0].Detail["line"])
	assert.Equal(t, 3, res.Errors[1].Detail["line"])
	assert.Equal(t, "-1", res.Errors[1].Detail["quantity"])
	assert.Equal(t, SeverityHigh, res.Errors[0].Severity)
}

func TestValidate_PaymentRules(t *testing.T) {
	tests := []struct {
		name    string
		payment model.Payment
		want    []Code
	}{
		{"valid in", model.Payment{Amount: dec("50"), Direction: model.DirectionIn, EntityType: "customer", EntityID: "5"}, []Code{}},
		{"valid out", model.Payment{Amount: dec("50"), Direction: model.DirectionOut, EntityType: "supplier", EntityID: "9"}, []Code{}},
		{"negative amount", model.Payment{Amount: dec("-1"), Direction: model.DirectionIn, EntityType: "customer", EntityID: "5"}, []Code{CodeInvalidAmount}},
		{"missing direction", model.Payment{Amount: dec("50"), EntityType: "customer", EntityID: "5"}, []Code{CodeInvalidDirection}},
		{"bad direction", model.Payment{Amount: dec("50"), Direction: "UP", EntityType: "customer", EntityID: "5"}, []Code{CodeInvalidDirection}},
		{"lowercase direction", model.Payment{Amount: dec("50"), Direction: "in", EntityType: "customer", EntityID: "5"}, []Code{CodeInvalidDirection}},
		{"padded direction", model.Payment{Amount: dec("50"), Direction: " OUT", EntityType: "supplier", EntityID: "9"}, []Code{CodeInvalidDirection}},
		{"orphaned", model.Payment{Amount: dec("50"), Direction: model.DirectionOut}, []Code{CodeMissingEntity}},
		{"missing id only", model.Payment{Amount: dec("50"), Direction: model.DirectionOut, EntityType: "partner"}, []Code{CodeMissingEntity}},
		{"everything wrong", model.Payment{}, []Code{CodeInvalidAmount, CodeInvalidDirection, CodeMissingEntity}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateAt(tt.payment, testTime)
			assert.Equal(t, tt.want, codes(res.Errors))
			assert.Equal(t, len(tt.want) > 0, res.Failed())
		})
	}
}

func TestValidate_StockAdjustmentNeverFails(t *testing.T) {
	tests := []struct {
		qty    int64
		reason string
		want   []Code
	}{
		{100, "cycle count", []Code{}},
		{101, "cycle count", []Code{CodeLargeAdjustment}},
		{-100, "damaged", []Code{}},
		{-101, "damaged", []Code{CodeLargeAdjustment}},
		{5, "   ", []Code{CodeNoReason}},
		{-500, "", []Code{CodeLargeAdjustment, CodeNoReason}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%q", tt.qty, tt.reason), func(t *testing.T) {
			res := ValidateAt(model.StockAdjustment{AdjustmentQty: tt.qty, Reason: tt.reason}, testTime)
			assert.Equal(t, StatusPass, res.Status)
			assert.Empty(t, res.Errors)
			assert.Equal(t, tt.want, codes(res.Warnings))
		})
	}
}

func TestValidate_UnrecognizedPasses(t *testing.T) {
	res := ValidateAt(model.Unrecognized{Type: "refund"}, testTime)
	assert.Equal(t, StatusPass, res.Status)
	assert.Equal(t, "refund", res.TransactionType)
	assert.NotNil(t, res.Errors)
	assert.NotNil(t, res.Warnings)
	assert.NotNil(t, res.Recommendations)
	assert.Empty(t, res.Errors)
}

func TestValidate_NilTransaction(t *testing.T) {
	res := ValidateAt(nil, testTime)
	assert.Equal(t, StatusPass, res.Status)
	assert.Equal(t, UnknownType, res.TransactionType)
}

func TestValidate_Idempotent(t *testing.T) {
	txs := []model.Transaction{
		sale("1000", "0", "100", "1100"),
		model.Payment{},
		model.GLBatch{Entries: []model.GLEntry{{Debit: dec("5"), Credit: dec("5")}, {Credit: dec("1")}}},
		model.StockAdjustment{AdjustmentQty: -400},
	}
	for _, tx := range txs {
		first := Validate(tx)
		second := Validate(tx)
		first.Timestamp, second.Timestamp = time.Time{}, time.Time{}
		assert.Equal(t, first, second)
	}
}

func TestValidate_Recommendations(t *testing.T) {
	s := sale("1000", "0", "100", "1100")
	s.Lines = []model.SaleLine{{Quantity: decimal.Zero}, {Quantity: decimal.Zero}}
	res := ValidateAt(s, testTime)

	// One recommendation per distinct code.
	assert.Equal(t, []string{
		CodeVATCalcError.Recommendation(),
		CodeTotalCalcError.Recommendation(),
		CodeInvalidQuantity.Recommendation(),
	}, res.Recommendations)
}

func TestValidate_TimestampUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	res := ValidateAt(model.StockAdjustment{Reason: "x"}, time.Date(2025, 1, 15, 13, 30, 0, 0, loc))
	assert.Equal(t, time.UTC, res.Timestamp.Location())
	assert.True(t, res.Timestamp.Equal(testTime))
}
