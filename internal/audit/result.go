package audit

import (
	"encoding/json"
	"fmt"
	"time"
)

// Issue is a single classified violation.
type Issue struct {
	Code     Code
	Severity Severity
	Message  string
	Detail   map[string]any
}

// Critical reports whether the issue must be escalated.
func (i Issue) Critical() bool {
	return i.Severity == SeverityCritical
}

// MarshalJSON writes code, severity and message with the detail keys inlined.
func (i Issue) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(i.Detail)+3)
	for k, v := range i.Detail {
		out[k] = v
	}
	out["code"] = i.Code
	out["severity"] = i.Severity
	out["message"] = i.Message
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON. Detail values come back as plain JSON
// values (amounts as strings).
func (i *Issue) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding issue: %w", err)
	}
	code, _ := raw["code"].(string)
	if code == "" {
		return fmt.Errorf("decoding issue: missing code")
	}
	severity, _ := raw["severity"].(string)
	message, _ := raw["message"].(string)
	delete(raw, "code")
	delete(raw, "severity")
	delete(raw, "message")

	*i = Issue{
		Code:     Code(code),
		Severity: Severity(severity),
		Message:  message,
		Detail:   raw,
	}
	return nil
}

// Status is the outcome of an audit.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// Result is the outcome of auditing one transaction.
type Result struct {
	ID              string    `json:"id,omitempty"`
	TransactionType string    `json:"transaction_type"`
	Timestamp       time.Time `json:"timestamp"`
	Status          Status    `json:"status"`
	Errors          []Issue   `json:"errors"`
	Warnings        []Issue   `json:"warnings"`
	Recommendations []string  `json:"recommendations"`
}

// Failed reports whether the audit found at least one error.
func (r Result) Failed() bool {
	return r.Status == StatusFail
}

// CriticalErrors returns the errors that must be escalated individually.
func (r Result) CriticalErrors() []Issue {
	var out []Issue
	for _, e := range r.Errors {
		if e.Critical() {
			out = append(out, e)
		}
	}
	return out
}

// ErrorCodes returns the code of every error, in order.
func (r Result) ErrorCodes() []Code {
	codes := make([]Code, len(r.Errors))
	for i, e := range r.Errors {
		codes[i] = e.Code
	}
	return codes
}

// collector accumulates issues while a transaction is checked.
type collector struct {
	errors   []Issue
	warnings []Issue
}

func (c *collector) add(code Code, message string, detail map[string]any) {
	issue := Classify(code, message, detail)
	if code.IsWarning() {
		c.warnings = append(c.warnings, issue)
		return
	}
	c.errors = append(c.errors, issue)
}

func (c *collector) result(transactionType string, ts time.Time) Result {
	res := Result{
		TransactionType: transactionType,
		Timestamp:       ts.UTC(),
		Status:          StatusPass,
		Errors:          []Issue{},
		Warnings:        []Issue{},
		Recommendations: []string{},
	}
	res.Errors = append(res.Errors, c.errors...)
	res.Warnings = append(res.Warnings, c.warnings...)
	if len(res.Errors) > 0 {
		res.Status = StatusFail
	}

	seen := make(map[Code]bool)
	for _, issues := range [][]Issue{res.Errors, res.Warnings} {
		for _, is := range issues {
			if seen[is.Code] {
				continue
			}
			seen[is.Code] = true
			if rec := is.Code.Recommendation(); rec != "" {
				res.Recommendations = append(res.Recommendations, rec)
			}
		}
	}
	return res
}
