// Package logging builds the process logger from configuration.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/ledgeraudit/internal/config"
)

// New returns a logger writing to w with the configured level and format.
func New(cfg config.LoggingConfig, w io.Writer) (*logrus.Logger, error) {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		l, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("logging level: %w", err)
		}
		level = l
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)

	switch cfg.Format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("logging format %q: must be text or json", cfg.Format)
	}
	return logger, nil
}

// Discard returns a logger that drops everything. Tests and callers that
// did not ask for logging use it.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
