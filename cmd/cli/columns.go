package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"abverdict/adapters/excel"
	"abverdict/domain/dataset"

	"github.com/spf13/cobra"
)

func newColumnsCmd() *cobra.Command {
	var sheet string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "columns [file]",
		Short: "List the columns of a file with their detected kinds",
		Long: `List every column with whether it parses as numeric or boolean and how many
distinct values it holds. Columns with exactly two values are candidate group columns.

Example: abverdict columns cookie_cats.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []excel.Option
			if sheet != "" {
				opts = append(opts, excel.WithSheet(sheet))
			}
			table, err := excel.NewDataReader(args[0], opts...).ReadTable(cmd.Context())
			if err != nil {
				return err
			}
			profiles := dataset.ProfileColumns(table)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(profiles)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d rows\n", len(table.Rows))
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COLUMN\tNUMERIC\tBOOLEAN\tDISTINCT\tEMPTY\tGROUP?")
			for _, p := range profiles {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					p.Name, yesNo(p.Numeric), yesNo(p.Boolean), p.Distinct, p.Empty, yesNo(p.GroupCandidate()))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read from an XLSX file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the profiles as JSON")
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
