package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgeraudit/internal/balance"
	"github.com/cleared-dev/ledgeraudit/internal/importer"
)

func newBalanceCommand(a *app) *cobra.Command {
	var format string
	var output string
	var entityType string
	var entityID string

	cmd := &cobra.Command{
		Use:   "balance <movements.csv|directory>",
		Short: "Compute entity balances from a movement history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var et balance.EntityType
			if entityType != "" {
				var err error
				if et, err = balance.ParseEntityType(entityType); err != nil {
					return err
				}
			}

			movements, err := loadMovements(args[0], format)
			if err != nil {
				return err
			}
			records, err := balance.ComputeAll(movements)
			if err != nil {
				return err
			}
			records = filterRecords(records, et, entityID)
			a.logger.WithField("entities", len(records)).Debug("balances computed")

			switch output {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			case "text":
				return writeBalanceTable(cmd.OutOrStdout(), records)
			default:
				return fmt.Errorf("unknown output %q: must be text or json", output)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "movements", "import format of the history files")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output: text or json")
	cmd.Flags().StringVar(&entityType, "entity-type", "", "only show CUSTOMER, SUPPLIER or PARTNER balances")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "only show this entity")

	return cmd
}

// loadMovements parses path, or every CSV directly inside it when path is a
// directory.
func loadMovements(path, format string) ([]balance.Movement, error) {
	reg := importer.DefaultRegistry()

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !info.IsDir() {
		return reg.ParseFile(path, format)
	}

	files, err := importer.Scan(path)
	if err != nil {
		return nil, err
	}
	var all []balance.Movement
	for _, f := range files {
		movements, err := reg.ParseFile(f.Path, format)
		if err != nil {
			return nil, err
		}
		all = append(all, movements...)
	}
	return all, nil
}

func filterRecords(records []balance.Record, et balance.EntityType, id string) []balance.Record {
	out := make([]balance.Record, 0, len(records))
	for _, r := range records {
		if et != "" && r.EntityType != et {
			continue
		}
		if id != "" && r.EntityID != id {
			continue
		}
		out = append(out, r)
	}
	return out
}

func writeBalanceTable(w io.Writer, records []balance.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "TYPE\tENTITY\tDEBIT\tCREDIT\tNET\tMEANING\t")
	for _, r := range records {
		meaning := string(r.SignMeaning)
		if r.Anomaly {
			meaning += " (!)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.EntityType, r.EntityID, r.DebitTotal, r.CreditTotal, r.NetBalance, meaning)
	}
	return tw.Flush()
}
