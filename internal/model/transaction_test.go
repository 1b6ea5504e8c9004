package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/ledgeraudit/internal/money"
)

func TestSaleExpectedAmounts(t *testing.T) {
	tests := []struct {
		subtotal, discount, rate  string
		wantNet, wantVAT, wantTot string
	}{
		{"1000", "0", "0.16", "1000.00", "160.00", "1160.00"},
		{"1000", "100", "0.16", "900.00", "144.00", "1044.00"},
		{"12.34", "0", "0.16", "12.34", "1.97", "14.31"},
		{"0", "0", "0.16", "0.00", "0.00", "0.00"},
	}
	for _, tt := range tests {
		s := Sale{
			Subtotal: money.MustParse(tt.subtotal),
			Discount: money.MustParse(tt.discount),
			VATRate:  money.MustParseRate(tt.rate),
		}
		assert.Equal(t, tt.wantNet, s.Net().String())
		assert.Equal(t, tt.wantVAT, s.ExpectedVAT().String())
		assert.Equal(t, tt.wantTot, s.ExpectedTotal().String())
	}
}

func TestDirectionValid(t *testing.T) {
	assert.True(t, DirectionIn.Valid())
	assert.True(t, DirectionOut.Valid())
	assert.False(t, Direction("").Valid())
	assert.False(t, Direction("in").Valid())
	assert.False(t, Direction("SIDEWAYS").Valid())
}

func TestGLBatchTotals(t *testing.T) {
	b := GLBatch{Entries: []GLEntry{
		{AccountCode: "1010", Debit: money.MustParse("500")},
		{AccountCode: "4010", Credit: money.MustParse("450")},
		{AccountCode: "2010", Credit: money.MustParse("50")},
	}}
	debit, credit := b.Totals()
	assert.Equal(t, "500.00", debit.String())
	assert.Equal(t, "500.00", credit.String())

	debit, credit = GLBatch{}.Totals()
	assert.True(t, debit.IsZero())
	assert.True(t, credit.IsZero())
}

func TestKinds(t *testing.T) {
	assert.Equal(t, KindSale, Sale{}.Kind())
	assert.Equal(t, KindPayment, Payment{}.Kind())
	assert.Equal(t, KindGLBatch, GLBatch{}.Kind())
	assert.Equal(t, KindStockAdjustment, StockAdjustment{}.Kind())
	assert.Equal(t, Kind("refund"), Unrecognized{Type: "refund"}.Kind())
}
