package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgeraudit/internal/config"
	"github.com/cleared-dev/ledgeraudit/internal/importer"
)

func newInitCommand() *cobra.Command {
	var storeDriver string
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledgeraudit project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, storeDriver, force)
		},
	}

	cmd.Flags().StringVar(&storeDriver, "store", "csv", "audit store driver: csv, sqlite or none")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing ledgeraudit.yaml")

	return cmd
}

func runInit(out io.Writer, dir, storeDriver string, force bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}

	// Create directory structure.
	for _, d := range []string{"logs", "import"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write ledgeraudit.yaml.
	cfg := config.Default()
	cfg.Store.Driver = storeDriver
	switch storeDriver {
	case "sqlite":
		cfg.Store.Path = "logs/audit.db"
	case "none":
		cfg.Store.Path = ""
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write an empty movements file so `balance import/` has a template.
	movements := filepath.Join(dir, "import", "movements.csv")
	if _, err := os.Stat(movements); os.IsNotExist(err) {
		if err := os.WriteFile(movements, []byte(importer.MovementsHeader+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing movements template: %w", err)
		}
	}

	// Write .gitignore.
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("logs/\n.env\n"), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	fmt.Fprintf(out, "Initialized ledgeraudit project at %s (store: %s)\n", dir, storeDriver)
	return nil
}
