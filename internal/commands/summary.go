package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgeraudit/internal/auditlog"
)

func newSummaryCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show pass rate and common errors from the audit store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("no audit store configured (store.driver is none)")
			}
			defer store.Close()

			results, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}

			svc, err := a.newService(auditlog.Replay(results, a.cfg.Audit.HistorySize), nil)
			if err != nil {
				return err
			}
			s := svc.Summary()

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			writeSummary(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	return cmd
}

func writeSummary(w io.Writer, s auditlog.Summary) {
	fmt.Fprintf(w, "Audits:     %d\n", s.TotalAudits)
	fmt.Fprintf(w, "Passed:     %d\n", s.PassedAudits)
	fmt.Fprintf(w, "Failed:     %d\n", s.FailedAudits)
	fmt.Fprintf(w, "Pass rate:  %s%%\n", s.PassRate)
	fmt.Fprintf(w, "History:    %d/%d\n", s.HistorySize, s.Capacity)
	if len(s.CommonErrors) == 0 {
		return
	}
	fmt.Fprintln(w, "Common errors:")
	for _, c := range s.CommonErrors {
		fmt.Fprintf(w, "  %-20s %d\n", c.Code, c.Count)
	}
}
