package main

import (
	"fmt"
	"os"

	"abverdict/adapters/excel"
	"abverdict/adapters/httpsource"
	"abverdict/adapters/report"
	"abverdict/app"
	"abverdict/domain/core"
	"abverdict/domain/dataset"
	"abverdict/internal"
	"abverdict/internal/config"
	"abverdict/internal/container"
	"abverdict/internal/errors"
	"abverdict/ports"

	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	columns      dataset.ColumnSelection
	sheet        string
	threshold    float64
	percentile   float64
	iterations   int
	seed         int64
	workers      int
	format       string
	distribution bool
	bins         int

	source httpsource.Source
}

func newAnalyzeCmd(logLevel *string) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Run the retention bootstrap and engagement rank test on an experiment export",
		Long: `Analyze a two-group experiment stored in a CSV or XLSX file.

Retention is compared with a bootstrap of the difference in rates; engagement with a
Mann-Whitney U test after removing values at or above the outlier threshold.

The data can instead be fetched from a JSON endpoint with --url; --data-path is a
gjson path to the array of user records. ABV_SOURCE_TOKEN is sent as a bearer token.

Example: abverdict analyze cookie_cats.csv --group version --metric retention_7 --continuous sum_gamerounds --seed 42`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(opts.format)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if *logLevel != "" {
				level = *logLevel
			}
			logger := internal.NewLoggerTo(cmd.ErrOrStderr(), internal.ParseLogLevel(level))

			c, err := container.New(cfg, logger)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			reader, err := opts.reader(args, logger)
			if err != nil {
				return err
			}
			table, err := reader.ReadTable(cmd.Context())
			if err != nil {
				return err
			}

			req := app.AnalysisRequest{
				Table:   table,
				Columns: opts.columns,
				AnalysisParams: app.AnalysisParams{
					Percentile: opts.percentile,
					Iterations: opts.iterations,
					Workers:    opts.workers,
				},
			}
			if cmd.Flags().Changed("threshold") {
				req.Threshold = &opts.threshold
			}
			if cmd.Flags().Changed("seed") {
				req.Seed = &opts.seed
			}

			rep, err := c.Analysis.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}

			renderOpts := report.DefaultOptions()
			renderOpts.IncludeDistribution = opts.distribution
			renderOpts.HistogramBins = opts.bins
			return report.Render(cmd.OutOrStdout(), rep, format, renderOpts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.columns.Group, "group", "", "Column holding the group label, e.g. version")
	flags.StringVar(&opts.columns.Retention, "metric", "", "Binary retention column, e.g. retention_7")
	flags.StringVar(&opts.columns.Engagement, "continuous", "", "Continuous engagement column, e.g. sum_gamerounds")
	flags.StringVar(&opts.sheet, "sheet", "", "Worksheet to read from an XLSX file (default: first sheet)")
	flags.Float64Var(&opts.threshold, "threshold", 0, "Drop rows whose engagement is at or above this value")
	flags.Float64Var(&opts.percentile, "percentile", 0, "Engagement percentile used as threshold when --threshold is unset (default ABV_OUTLIER_PERCENTILE or 99)")
	flags.IntVar(&opts.iterations, "iterations", 0, "Bootstrap iterations (default ABV_ITERATIONS or 1000)")
	flags.Int64Var(&opts.seed, "seed", 0, "Random seed for a reproducible bootstrap")
	flags.IntVar(&opts.workers, "workers", 0, "Bootstrap workers (default ABV_WORKERS or GOMAXPROCS)")
	flags.StringVar(&opts.format, "format", "text", "Output format: text, json, yaml, markdown or html")
	flags.BoolVar(&opts.distribution, "distribution", false, "Include every bootstrap difference in json/yaml output")
	flags.IntVar(&opts.bins, "bins", 20, "Histogram bars in text/markdown output; 0 hides the histogram")
	flags.StringVar(&opts.source.URL, "url", "", "Fetch records from a JSON endpoint instead of a file")
	flags.StringVar(&opts.source.DataPath, "data-path", "", "gjson path to the records in the response, e.g. data.users")
	flags.StringVar((*string)(&opts.source.Pagination), "pagination", "none", "none, page, offset or cursor")
	flags.IntVar(&opts.source.PageSize, "page-size", 1000, "Records requested per page")
	flags.IntVar(&opts.source.MaxPages, "max-pages", 100, "Stop after this many pages")

	return cmd
}

// reader picks the file reader or the HTTP source; exactly one must be given
func (o *analyzeOptions) reader(args []string, logger *internal.Logger) (ports.TableReader, error) {
	switch {
	case len(args) == 1 && o.source.URL != "":
		return nil, errors.Validation("input", fmt.Errorf("%w: pass a file or --url, not both", core.ErrInvalidParameter))
	case o.source.URL != "":
		src := o.source
		src.BearerToken = os.Getenv("ABV_SOURCE_TOKEN")
		return httpsource.NewReader(src, httpsource.WithLogger(logger)), nil
	case len(args) == 1:
		readerOpts := []excel.Option{excel.WithLogger(logger)}
		if o.sheet != "" {
			readerOpts = append(readerOpts, excel.WithSheet(o.sheet))
		}
		return excel.NewDataReader(args[0], readerOpts...), nil
	default:
		return nil, errors.Validation("input", fmt.Errorf("%w: a file or --url is required", core.ErrInvalidParameter))
	}
}
