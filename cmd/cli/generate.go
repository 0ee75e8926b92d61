package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"abverdict/domain/core"
	"abverdict/internal/errors"
	"abverdict/internal/synth"

	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	cfg := synth.DefaultConfig()
	var sheet, format string

	cmd := &cobra.Command{
		Use:   "generate [file]",
		Short: "Write a synthetic two-group experiment for trying out analyze",
		Long: `Generate a seeded experiment with userid, version, sum_gamerounds, retention_1 and
retention_7 columns. The format follows the file extension unless --format is given.

Example: abverdict generate cookie_cats.csv --users 90189 --b-retention7 0.182`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			name := strings.ToLower(strings.TrimSpace(format))
			if name == "" {
				name = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
			}
			if name != "csv" && name != "xlsx" {
				return errors.Validation("output format",
					fmt.Errorf("%w: expected csv or xlsx, got %q", core.ErrInvalidParameter, name))
			}

			exp, err := synth.Generate(cfg)
			if err != nil {
				return err
			}

			f, err := os.Create(path)
			if err != nil {
				return errors.Wrapf(err, "failed to create %s", path)
			}
			defer f.Close()

			if name == "csv" {
				err = synth.WriteCSV(f, exp)
			} else {
				err = synth.WriteXLSX(f, exp, sheet)
			}
			if err != nil {
				return errors.Wrapf(err, "failed to write %s", path)
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d users, groups %s/%s\n", path, len(exp.Rows), cfg.A.Label, cfg.B.Label)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.Users, "users", cfg.Users, "Number of users, split alternately between the groups")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "RNG seed")
	flags.StringVar(&format, "format", "", "csv or xlsx (default inferred from the file name)")
	flags.StringVar(&sheet, "sheet", "", "Sheet name for xlsx output")
	flags.StringVar(&cfg.A.Label, "a-label", cfg.A.Label, "Label of the first group")
	flags.StringVar(&cfg.B.Label, "b-label", cfg.B.Label, "Label of the second group")
	flags.Float64Var(&cfg.A.Retention7, "a-retention7", cfg.A.Retention7, "7-day retention rate of the first group")
	flags.Float64Var(&cfg.B.Retention7, "b-retention7", cfg.B.Retention7, "7-day retention rate of the second group")
	flags.Float64Var(&cfg.A.MeanRounds, "a-rounds", cfg.A.MeanRounds, "Mean game rounds of the first group")
	flags.Float64Var(&cfg.B.MeanRounds, "b-rounds", cfg.B.MeanRounds, "Mean game rounds of the second group")
	flags.IntVar(&cfg.Outliers, "outliers", cfg.Outliers, "Extreme engagement values injected into the first group")

	return cmd
}
