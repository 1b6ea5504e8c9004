package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newAuditCommand(a *app) *cobra.Command {
	var failOnError bool

	cmd := &cobra.Command{
		Use:   "audit <file.json|->",
		Short: "Audit transactions from a JSON file and print the results",
		Long: "Reads a JSON transaction object or an array of them (\"-\" reads stdin),\n" +
			"prints one audit result per transaction and records them in the configured store.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return a.runAudit(cmd, raw, failOnError)
		},
	}

	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit non-zero when any audit fails")

	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func (a *app) runAudit(cmd *cobra.Command, raw []byte, failOnError bool) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	svc, err := a.newService(nil, store)
	if err != nil {
		return err
	}

	results, err := svc.AuditPayloads(cmd.Context(), raw)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	if failOnError {
		if s := svc.Summary(); s.FailedAudits > 0 {
			return fmt.Errorf("%d of %d audits failed", s.FailedAudits, s.TotalAudits)
		}
	}
	return nil
}
