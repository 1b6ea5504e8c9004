// Package auditor runs transactions through validation and records the
// outcome: the in-memory history, the configured store, and alerts for
// failures.
package auditor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/ledgeraudit/internal/alert"
	"github.com/cleared-dev/ledgeraudit/internal/audit"
	"github.com/cleared-dev/ledgeraudit/internal/auditlog"
	"github.com/cleared-dev/ledgeraudit/internal/logging"
	"github.com/cleared-dev/ledgeraudit/internal/model"
	"github.com/cleared-dev/ledgeraudit/internal/money"
	"github.com/cleared-dev/ledgeraudit/internal/payload"
)

// AlertAuditFailed is the alert type sent for a failed audit with no
// critical error.
const AlertAuditFailed = "audit_failed"

// Options configures a Service. Zero values select defaults.
type Options struct {
	Log        *auditlog.Log
	Store      auditlog.Store
	Dispatcher alert.Dispatcher
	Logger     logrus.FieldLogger

	DefaultVATRate    money.Rate
	CommonErrorsLimit int

	Clock func() time.Time
	NewID func() string
}

// Service audits transactions. It is safe for concurrent use.
type Service struct {
	log        *auditlog.Log
	store      auditlog.Store
	dispatcher alert.Dispatcher
	logger     logrus.FieldLogger
	decoder    *payload.Decoder

	commonErrorsLimit int
	now               func() time.Time
	newID             func() string
}

// New creates a Service.
func New(opts Options) *Service {
	s := &Service{
		log:               opts.Log,
		store:             opts.Store,
		dispatcher:        opts.Dispatcher,
		logger:            opts.Logger,
		decoder:           payload.NewDecoder(opts.DefaultVATRate),
		commonErrorsLimit: opts.CommonErrorsLimit,
		now:               opts.Clock,
		newID:             opts.NewID,
	}
	if s.log == nil {
		s.log = auditlog.New(auditlog.DefaultCapacity)
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Audit validates tx and records the result. Recording and alerting
// failures are logged and never change the returned result.
func (s *Service) Audit(ctx context.Context, tx model.Transaction) audit.Result {
	res := audit.ValidateAt(tx, s.now())
	res.ID = s.newID()
	s.log.Append(res)

	entry := s.logger.WithFields(logrus.Fields{
		"audit_id":         res.ID,
		"transaction_type": res.TransactionType,
	})
	if res.Failed() {
		entry.WithField("errors", res.ErrorCodes()).Warn("audit failed")
	} else {
		entry.WithField("warnings", len(res.Warnings)).Debug("audit passed")
	}

	if err := s.record(ctx, res); err != nil {
		entry.WithError(err).Error("recording audit result")
	}
	s.dispatch(ctx, res, entry)
	return res
}

// AuditPayload decodes a single JSON transaction and audits it. Payloads that
// match no transaction shape return a *payload.InvalidInputError and are not
// recorded.
func (s *Service) AuditPayload(ctx context.Context, raw []byte) (audit.Result, error) {
	tx, err := s.decoder.Decode(raw)
	if err != nil {
		return audit.Result{}, err
	}
	return s.Audit(ctx, tx), nil
}

// AuditPayloads decodes a JSON object or array of transactions and audits
// each. Nothing is audited unless every payload decodes.
func (s *Service) AuditPayloads(ctx context.Context, raw []byte) ([]audit.Result, error) {
	txs, err := s.decoder.DecodeAll(raw)
	if err != nil {
		return nil, err
	}
	return s.AuditAll(ctx, txs), nil
}

// AuditAll audits txs in order.
func (s *Service) AuditAll(ctx context.Context, txs []model.Transaction) []audit.Result {
	results := make([]audit.Result, 0, len(txs))
	for _, tx := range txs {
		results = append(results, s.Audit(ctx, tx))
	}
	return results
}

// Summary returns statistics over every audit this service has seen.
func (s *Service) Summary() auditlog.Summary {
	return s.log.Summary(s.commonErrorsLimit)
}

// Recent returns up to n of the latest results, oldest first.
func (s *Service) Recent(n int) []audit.Result {
	return s.log.Recent(n)
}

// record persists res. The returned error is always a *auditlog.PersistenceError.
func (s *Service) record(ctx context.Context, res audit.Result) error {
	if s.store == nil {
		return nil
	}
	err := s.store.Save(ctx, res)
	if err == nil {
		return nil
	}
	var pErr *auditlog.PersistenceError
	if errors.As(err, &pErr) {
		return err
	}
	return &auditlog.PersistenceError{Op: "save", AuditID: res.ID, Err: err}
}

func (s *Service) dispatch(ctx context.Context, res audit.Result, entry logrus.FieldLogger) {
	if s.dispatcher == nil {
		return
	}
	for _, a := range Alerts(res) {
		if err := s.dispatcher.Dispatch(ctx, a); err != nil {
			entry.WithError(err).WithField("alert_type", a.Type).Error("dispatching alert")
		}
	}
}

// Alerts returns the alerts owed for res: one per critical error, or a
// single audit_failed alert when res failed without a critical error.
func Alerts(res audit.Result) []alert.Alert {
	if !res.Failed() {
		return nil
	}

	var alerts []alert.Alert
	for _, issue := range res.CriticalErrors() {
		data := make(map[string]any, len(issue.Detail)+3)
		for k, v := range issue.Detail {
			data[k] = v
		}
		data["audit_id"] = res.ID
		data["transaction_type"] = res.TransactionType
		data["code"] = string(issue.Code)

		alerts = append(alerts, alert.Alert{
			Type:     strings.ToLower(string(issue.Code)),
			Severity: alert.SeverityCritical,
			Message:  issue.Message,
			Action:   issue.Code.Recommendation(),
			Data:     data,
		})
	}
	if len(alerts) > 0 {
		return alerts
	}

	codes := make([]string, 0, len(res.Errors))
	for _, c := range res.ErrorCodes() {
		codes = append(codes, string(c))
	}
	action := ""
	if len(res.Recommendations) > 0 {
		action = res.Recommendations[0]
	}
	return []alert.Alert{{
		Type:     AlertAuditFailed,
		Severity: alert.SeverityCritical,
		Message:  fmt.Sprintf("%s audit failed: %s", res.TransactionType, strings.Join(codes, ", ")),
		Action:   action,
		Data: map[string]any{
			"audit_id":         res.ID,
			"transaction_type": res.TransactionType,
			"errors":           codes,
		},
	}}
}
