// Package alert defines the boundary to the external monitoring sink that
// receives critical audit findings.
package alert

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// SeverityCritical is the only severity sent to the monitor.
const SeverityCritical = "critical"

// Alert is one message for the monitor.
type Alert struct {
	Type     string         `json:"alert_type"`
	Severity string         `json:"severity"`
	Message  string         `json:"message"`
	Action   string         `json:"action"`
	Data     map[string]any `json:"data"`
}

// Dispatcher forwards alerts to a monitor.
type Dispatcher interface {
	Dispatch(ctx context.Context, a Alert) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, a Alert) error

func (f DispatcherFunc) Dispatch(ctx context.Context, a Alert) error { return f(ctx, a) }

// LogDispatcher writes alerts to a logger. It is the sink used when no
// external monitor is configured.
type LogDispatcher struct {
	Logger logrus.FieldLogger
}

func (d LogDispatcher) Dispatch(_ context.Context, a Alert) error {
	d.Logger.WithFields(logrus.Fields{
		"alert_type": a.Type,
		"severity":   a.Severity,
		"action":     a.Action,
		"data":       a.Data,
	}).Error(a.Message)
	return nil
}

// Multi sends every alert to all dispatchers and joins their errors.
type Multi []Dispatcher

func (m Multi) Dispatch(ctx context.Context, a Alert) error {
	var errs []error
	for _, d := range m {
		if err := d.Dispatch(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
