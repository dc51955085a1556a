package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/paveg/tabula"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	configPath string
	sheet      string
	verbose    bool
	metrics    bool
}

// session is one loaded dataset for the duration of a command.
type session struct {
	engine *tabula.Engine
	handle string
	log    logr.Logger
	out    io.Writer
	opts   *options
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "tabula",
		Short:         "Inspect, retype and aggregate CSV, Excel and Parquet files",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "configuration file (.json, .yaml)")
	flags.StringVar(&opts.sheet, "sheet", "", "worksheet to load from a workbook")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "development logging with debug detail")
	flags.BoolVar(&opts.metrics, "metrics", false, "log operation metrics on exit")

	root.AddCommand(
		newDescribeCommand(opts),
		newSheetsCommand(opts),
		newPreviewCommand(opts),
		newChartCommand(opts),
		newPivotCommand(opts),
		newRetypeCommand(opts),
		newFormulaCommand(opts),
		newVersionCommand(),
	)
	return root
}

func newLogger(verbose bool) (logr.Logger, func(), error) {
	var (
		z   *zap.Logger
		err error
	)
	if verbose {
		z, err = zap.NewDevelopment()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		return logr.Discard(), func() {}, fmt.Errorf("building logger: %w", err)
	}
	return zapr.NewLogger(z).WithName("tabula"), func() { _ = z.Sync() }, nil
}

func loadConfig(opts *options) (tabula.Config, error) {
	cfg := tabula.ConfigFromEnv()
	if opts.configPath != "" {
		var err error
		if cfg, err = tabula.LoadConfig(opts.configPath); err != nil {
			return cfg, err
		}
	}
	if opts.verbose {
		cfg.VerboseLogging = true
	}
	if opts.metrics {
		cfg.MetricsCollection = true
	}
	return cfg, nil
}

// withSession loads path, selects the requested sheet when the workbook
// asks for one, runs fn and clears the context afterwards.
func withSession(cmd *cobra.Command, opts *options, path string, fn func(context.Context, *session) error) error {
	log, sync, err := newLogger(opts.verbose)
	if err != nil {
		return err
	}
	defer sync()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	eng, err := tabula.New(tabula.WithConfig(cfg), tabula.WithLogger(log))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	res, err := eng.Load(ctx, path, opts.sheet)
	if err != nil {
		return err
	}
	defer eng.Clear(res.Handle)

	if len(res.PendingSheets) > 0 {
		return fmt.Errorf("%s has several sheets, choose one with --sheet: %v", path, res.PendingSheets)
	}

	s := &session{engine: eng, handle: res.Handle, log: log, out: cmd.OutOrStdout(), opts: opts}
	err = fn(ctx, s)

	if cfg.MetricsCollection {
		summary := eng.Metrics()
		log.Info("metrics", "operations", summary.TotalOperations, "failures", summary.Failures,
			"rows", summary.TotalRows, "duration", summary.TotalDuration.String())
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
