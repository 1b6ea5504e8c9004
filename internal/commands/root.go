package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgeraudit/internal/alert"
	"github.com/cleared-dev/ledgeraudit/internal/auditlog"
	"github.com/cleared-dev/ledgeraudit/internal/auditor"
	"github.com/cleared-dev/ledgeraudit/internal/buildinfo"
	"github.com/cleared-dev/ledgeraudit/internal/config"
	"github.com/cleared-dev/ledgeraudit/internal/logging"
)

// app carries the settings every subcommand needs. It is filled in by the
// root command's PersistentPreRunE.
type app struct {
	configPath string
	envFile    string

	cfg     *config.Config
	baseDir string // relative store paths resolve against this
	logger  *logrus.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "ledgeraudit",
		Short:   "Audit sales, payments, GL batches and stock adjustments",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.Flags().Changed("config"), cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", config.FileName, "path to ledgeraudit.yaml")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", "load environment overrides from this file (default .env if present)")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newAuditCommand(a))
	rootCmd.AddCommand(newBalanceCommand(a))
	rootCmd.AddCommand(newSummaryCommand(a))

	return rootCmd
}

// load reads the config file, applies env overrides and builds the logger.
// A missing config file is only an error when the path was given explicitly.
func (a *app) load(explicit bool, cmd *cobra.Command) error {
	if err := config.LoadEnv(a.envFile); err != nil {
		return err
	}

	cfg, err := config.Load(a.configPath)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		cfg = config.Default()
	default:
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", a.configPath, err)
	}

	logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	absConfig, err := filepath.Abs(a.configPath)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	a.cfg = cfg
	a.baseDir = filepath.Dir(absConfig)
	a.logger = logger
	return nil
}

func (a *app) storePath() string {
	p := a.cfg.Store.Path
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.baseDir, p)
}

// openStore returns the configured store, or nil when persistence is off.
func (a *app) openStore() (auditlog.Store, error) {
	store, err := auditlog.Open(a.cfg.Store.Driver, a.storePath())
	if err != nil {
		return nil, fmt.Errorf("opening audit store: %w", err)
	}
	return store, nil
}

func (a *app) newService(log *auditlog.Log, store auditlog.Store) (*auditor.Service, error) {
	rate, err := a.cfg.VATRate()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = auditlog.New(a.cfg.Audit.HistorySize)
	}

	var dispatcher alert.Dispatcher
	if a.cfg.Alerts.Enabled {
		dispatcher = alert.LogDispatcher{Logger: a.logger.WithField("component", "alerts")}
	}

	return auditor.New(auditor.Options{
		Log:               log,
		Store:             store,
		Dispatcher:        dispatcher,
		Logger:            a.logger,
		DefaultVATRate:    rate,
		CommonErrorsLimit: a.cfg.Audit.CommonErrorsLimit,
	}), nil
}
