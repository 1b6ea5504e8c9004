package audit

// Code identifies a class of violation.
type Code string

const (
	CodeVATCalcError     Code = "VAT_CALC_ERROR"
	CodeTotalCalcError   Code = "TOTAL_CALC_ERROR"
	CodeZeroSale         Code = "ZERO_SALE"
	CodeInvalidDiscount  Code = "INVALID_DISCOUNT"
	CodeInvalidQuantity  Code = "INVALID_QUANTITY"
	CodeInvalidAmount    Code = "INVALID_AMOUNT"
	CodeInvalidDirection Code = "INVALID_DIRECTION"
	CodeMissingEntity    Code = "MISSING_ENTITY"
	CodeEmptyBatch       Code = "EMPTY_BATCH"
	CodeBothDebitCredit  Code = "BOTH_DEBIT_CREDIT"
	CodeUnbalancedBatch  Code = "UNBALANCED_BATCH"
	CodeLargeAdjustment  Code = "LARGE_ADJUSTMENT"
	CodeNoReason         Code = "NO_REASON"
)

// Severity ranks an issue. Values are the lowercase wire form.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

type classification struct {
	severity       Severity
	warning        bool
	recommendation string
}

var taxonomy = map[Code]classification{
	CodeVATCalcError:     {SeverityHigh, false, "Recalculate VAT on the discounted subtotal using the sale's rate"},
	CodeTotalCalcError:   {SeverityCritical, false, "Recompute the total as net amount plus VAT before posting"},
	CodeZeroSale:         {SeverityLow, true, "Confirm the zero-value sale is intentional"},
	CodeInvalidDiscount:  {SeverityHigh, false, "Cap the discount at the sale subtotal"},
	CodeInvalidQuantity:  {SeverityHigh, false, "Correct line quantities to positive values"},
	CodeInvalidAmount:    {SeverityCritical, false, "Reject the payment and re-enter a positive amount"},
	CodeInvalidDirection: {SeverityHigh, false, "Set the payment direction to IN or OUT"},
	CodeMissingEntity:    {SeverityHigh, false, "Link the payment to its counterparty entity"},
	CodeEmptyBatch:       {SeverityCritical, false, "Discard the empty batch or add its entries"},
	CodeBothDebitCredit:  {SeverityMedium, true, "Split the entry into separate debit and credit lines"},
	CodeUnbalancedBatch:  {SeverityCritical, false, "Hold the batch until debits equal credits"},
	CodeLargeAdjustment:  {SeverityMedium, true, "Have a supervisor approve the adjustment"},
	CodeNoReason:         {SeverityLow, true, "Record a reason for the stock adjustment"},
}

// Codes returns every code in the taxonomy in declaration order.
func Codes() []Code {
	return []Code{
		CodeVATCalcError, CodeTotalCalcError, CodeZeroSale, CodeInvalidDiscount,
		CodeInvalidQuantity, CodeInvalidAmount, CodeInvalidDirection, CodeMissingEntity,
		CodeEmptyBatch, CodeBothDebitCredit, CodeUnbalancedBatch, CodeLargeAdjustment,
		CodeNoReason,
	}
}

// Known reports whether c belongs to the taxonomy.
func (c Code) Known() bool {
	_, ok := taxonomy[c]
	return ok
}

// Severity returns the fixed severity of c. Codes outside the taxonomy rank high.
func (c Code) Severity() Severity {
	if cl, ok := taxonomy[c]; ok {
		return cl.severity
	}
	return SeverityHigh
}

// IsWarning reports whether c never fails an audit on its own.
func (c Code) IsWarning() bool {
	return taxonomy[c].warning
}

// Recommendation returns the remediation hint for c.
func (c Code) Recommendation() string {
	return taxonomy[c].recommendation
}

// Classify builds the issue record for a detected violation.
func Classify(code Code, message string, detail map[string]any) Issue {
	if detail == nil {
		detail = map[string]any{}
	}
	return Issue{
		Code:     code,
		Severity: code.Severity(),
		Message:  message,
		Detail:   detail,
	}
}
