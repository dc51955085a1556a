// Package engine coordinates loading, retyping, derived columns and
// aggregations over the datasets held in a context store.
package engine

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/paveg/tabula/internal/aggregate"
	"github.com/paveg/tabula/internal/coerce"
	"github.com/paveg/tabula/internal/config"
	"github.com/paveg/tabula/internal/dataframe"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/filter"
	"github.com/paveg/tabula/internal/formula"
	"github.com/paveg/tabula/internal/io"
	"github.com/paveg/tabula/internal/monitoring"
	"github.com/paveg/tabula/internal/parallel"
	"github.com/paveg/tabula/internal/schema"
	"github.com/paveg/tabula/internal/store"
)

// Engine runs dataset operations. It is safe for concurrent use: mutations
// of one handle are serialized by the store, reads work on snapshots.
type Engine struct {
	cfg     config.Config
	limits  aggregate.Limits
	log     logr.Logger
	store   *store.Store
	metrics *monitoring.MetricsCollector
	pool    *parallel.WorkerPool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logr.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithStore injects the context store, for sharing one store between
// engines.
func WithStore(s *store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// New creates an engine. The configuration is validated and a worker pool
// size of 0 is resolved to the CPU count.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{cfg: config.NewConfig(), log: logr.Discard()}
	for _, opt := range opts {
		opt(e)
	}

	cfg, warnings, err := config.NewConfigValidator().Validate(e.cfg.WithDefaults())
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	e.cfg = cfg
	e.log = e.log.WithName("engine")
	for _, w := range warnings {
		e.log.Info("configuration warning", "warning", w)
	}

	if e.store == nil {
		e.store = store.New()
	}
	e.limits = aggregate.LimitsFromConfig(cfg)
	e.metrics = monitoring.NewMetricsCollector(cfg.MetricsCollection)
	e.pool = parallel.NewWorkerPool(cfg.WorkerPoolSize)

	e.log.V(1).Info("engine ready", "workers", e.pool.Size(), "pivotMode", cfg.PivotMode,
		"maxRows", cfg.MaxRows)
	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Metrics summarizes the recorded operations. It is empty unless metrics
// collection is enabled.
func (e *Engine) Metrics() monitoring.MetricsSummary {
	return e.metrics.GetSummary()
}

func (e *Engine) loadOptions() io.LoadOptions {
	return io.LoadOptions{
		MaxRows:           e.cfg.MaxRows,
		ParallelThreshold: e.cfg.ParallelThreshold,
		Pool:              e.pool,
	}
}

// Load parses the source at path into a new context and returns its
// handle. A multi-sheet source without sheet yields PendingSheets.
func (e *Engine) Load(ctx context.Context, path, sheet string) (*LoadResult, error) {
	log := e.log.WithValues("path", path)
	var result *LoadResult

	err := e.metrics.RecordOperation("Load", func() (int64, error) {
		loaded, err := io.Load(ctx, path, sheet, e.loadOptions())
		if err != nil {
			return 0, err
		}

		c := store.Context{Source: loaded.Source, Sheets: loaded.Sheets, Dataset: loaded.Dataset}
		handle := e.store.Create(c)
		result = &LoadResult{Handle: handle}
		if loaded.NeedsSheet() {
			result.PendingSheets = loaded.Sheets
			log.V(1).Info("source needs a sheet", "handle", handle, "sheets", len(loaded.Sheets))
			return 0, nil
		}

		result.Summary = summarize(&c)
		log.Info("dataset loaded", "handle", handle, "format", loaded.Source.Format.String(),
			"rows", loaded.Dataset.Len(), "columns", loaded.Dataset.Width())
		return int64(loaded.Dataset.Len()), nil
	})
	if err != nil {
		log.V(1).Info("load failed", "error", err.Error())
		return nil, err
	}
	return result, nil
}

// SelectSheet parses another sheet of the handle's source and re-applies
// the recorded type overrides.
func (e *Engine) SelectSheet(ctx context.Context, handle, sheet string) (*DatasetSummary, error) {
	log := e.log.WithValues("handle", handle, "sheet", sheet)
	var summary *DatasetSummary

	err := e.metrics.RecordOperation("SelectSheet", func() (int64, error) {
		var rows int64
		err := e.store.Update(handle, func(c *store.Context) error {
			if !c.Source.Format.HasSheets() {
				return dferrors.NewValidationError("SelectSheet", "", "source has no sheets")
			}

			loaded, err := io.Load(ctx, c.Source.Path, sheet, e.loadOptions())
			if err != nil {
				return err
			}
			if loaded.NeedsSheet() {
				return dferrors.NewValidationError("SelectSheet", "", "sheet name is required")
			}

			ds, err := coerce.ApplyOverrides(loaded.Dataset, c.Overrides)
			loaded.Dataset.Release()
			if err != nil {
				return err
			}

			derived := c.Derived[:0]
			for _, d := range c.Derived {
				if ds.HasColumn(d.Name) {
					derived = append(derived, d)
				}
			}

			c.Source.Sheet = loaded.Source.Sheet
			c.Sheets = loaded.Sheets
			c.Derived = derived
			c.Dataset = ds
			summary = summarize(c)
			rows = int64(ds.Len())
			return nil
		})
		return rows, err
	})
	if err != nil {
		return nil, err
	}
	log.Info("sheet selected", "rows", summary.Rows)
	return summary, nil
}

// Retype converts columns, persists the dataset and records the overrides.
// Nothing changes in memory or on disk when any step fails.
func (e *Engine) Retype(ctx context.Context, handle string, requests []coerce.Request) (*RetypeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := e.log.WithValues("handle", handle)
	var result *RetypeResult

	err := e.metrics.RecordOperation("Retype", func() (int64, error) {
		var rows int64
		err := e.store.Update(handle, func(c *store.Context) error {
			ds, err := e.requireDataset(c, "Retype")
			if err != nil {
				return err
			}

			converted, err := coerce.Retype(ds, requests, coerce.Options{NullWarningRatio: e.cfg.NullWarningRatio})
			if err != nil {
				return err
			}

			src, err := io.Save(c.Source, converted.Dataset)
			if err != nil {
				converted.Dataset.Release()
				log.Error(err, "persisting retyped dataset failed", "path", c.Source.Path)
				return err
			}

			for name, t := range converted.Applied {
				c.Overrides[name] = t
			}
			c.Source = src
			c.Dataset = converted.Dataset
			rows = int64(ds.Len())

			result = &RetypeResult{Applied: converted.Applied, Source: src, Warnings: []Warning{}}
			for _, w := range converted.Warnings {
				result.Warnings = append(result.Warnings, Warning{Column: w.Column, Message: w.Message})
				log.Info("retype warning", "column", w.Column, "nullRatio", w.NullRatio)
			}
			return nil
		})
		return rows, err
	})
	if err != nil {
		return nil, err
	}
	log.Info("columns retyped", "columns", len(result.Applied), "path", result.Source.Path)
	return result, nil
}

// AddCalculatedColumn evaluates formula into a new column, persists the
// dataset and records the derivation.
func (e *Engine) AddCalculatedColumn(ctx context.Context, handle, name, expr string) (*ColumnInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := e.log.WithValues("handle", handle, "column", name)
	var info ColumnInfo

	err := e.metrics.RecordOperation("AddCalculatedColumn", func() (int64, error) {
		var rows int64
		err := e.store.Update(handle, func(c *store.Context) error {
			ds, err := e.requireDataset(c, "AddCalculatedColumn")
			if err != nil {
				return err
			}

			next, err := formula.AddColumn(ds, name, expr)
			if err != nil {
				return err
			}

			src, err := io.Save(c.Source, next)
			if err != nil {
				next.Release()
				log.Error(err, "persisting derived column failed", "path", c.Source.Path)
				return err
			}

			c.Source = src
			c.Dataset = next
			c.Derived = append(c.Derived, store.DerivedColumn{Name: name, Formula: expr})
			info = columnInfo(c, next, name)
			rows = int64(next.Len())
			return nil
		})
		return rows, err
	})
	if err != nil {
		return nil, err
	}
	log.Info("calculated column added", "formula", expr)
	return &info, nil
}

// Chart computes a chart over a snapshot of the handle's dataset.
func (e *Engine) Chart(ctx context.Context, handle string, req aggregate.ChartRequest) (*aggregate.ChartSeries, error) {
	c, err := e.snapshot(ctx, handle, "Chart")
	if err != nil {
		return nil, err
	}

	var out *aggregate.ChartSeries
	err = e.metrics.RecordOperation("Chart", func() (int64, error) {
		var err error
		out, err = aggregate.Chart(c.Dataset, req, e.limits)
		return int64(c.Dataset.Len()), err
	})
	if err != nil {
		return nil, err
	}
	e.logSkipped(handle, "Chart", out.Skipped)
	return out, nil
}

// Pivot computes a pivot table over a snapshot of the handle's dataset.
func (e *Engine) Pivot(ctx context.Context, handle string, req aggregate.PivotRequest) (*aggregate.PivotTable, error) {
	c, err := e.snapshot(ctx, handle, "Pivot")
	if err != nil {
		return nil, err
	}

	var out *aggregate.PivotTable
	err = e.metrics.RecordOperation("Pivot", func() (int64, error) {
		var err error
		out, err = aggregate.Pivot(c.Dataset, req, e.limits)
		return int64(c.Dataset.Len()), err
	})
	if err != nil {
		return nil, err
	}
	e.logSkipped(handle, "Pivot", out.Skipped)
	return out, nil
}

// AvailableCharts lists the chart kinds suited to the given columns. y may
// be empty.
func (e *Engine) AvailableCharts(ctx context.Context, handle, x, y string) ([]aggregate.ChartKind, error) {
	c, err := e.snapshot(ctx, handle, "AvailableCharts")
	if err != nil {
		return nil, err
	}

	xCol, ok := c.Dataset.Column(x)
	if !ok {
		return nil, dferrors.NewUnknownColumnError("AvailableCharts", x)
	}
	var yType *schema.Type
	if y != "" {
		yCol, ok := c.Dataset.Column(y)
		if !ok {
			return nil, dferrors.NewUnknownColumnError("AvailableCharts", y)
		}
		t := yCol.Type()
		yType = &t
	}
	return aggregate.AvailableKinds(xCol.Type(), yType), nil
}

// DescribeColumns lists the columns of the handle's dataset.
func (e *Engine) DescribeColumns(ctx context.Context, handle string) ([]ColumnInfo, error) {
	c, err := e.snapshot(ctx, handle, "DescribeColumns")
	if err != nil {
		return nil, err
	}
	return describe(&c), nil
}

// Preview renders the first rows as text. A limit outside
// 1..PreviewLimit uses PreviewLimit.
func (e *Engine) Preview(ctx context.Context, handle string, limit int) (*Preview, error) {
	c, err := e.snapshot(ctx, handle, "Preview")
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > e.cfg.PreviewLimit {
		limit = e.cfg.PreviewLimit
	}
	ds := c.Dataset
	n := min(limit, ds.Len())

	p := &Preview{Columns: ds.Columns(), Rows: make([][]string, n), TotalRows: ds.Len()}
	for i := 0; i < n; i++ {
		p.Rows[i] = ds.RowStrings(i)
	}
	return p, nil
}

// Clear drops the context of handle. It reports whether it existed.
func (e *Engine) Clear(handle string) bool {
	ok := e.store.Delete(handle)
	e.log.V(1).Info("context cleared", "handle", handle, "existed", ok)
	return ok
}

func (e *Engine) snapshot(ctx context.Context, handle, op string) (store.Context, error) {
	if err := ctx.Err(); err != nil {
		return store.Context{}, err
	}
	c, err := e.store.Snapshot(handle)
	if err != nil {
		return store.Context{}, err
	}
	if _, err := e.requireDataset(&c, op); err != nil {
		return store.Context{}, err
	}
	return c, nil
}

func (e *Engine) requireDataset(c *store.Context, op string) (*dataframe.Dataset, error) {
	if c.Dataset == nil {
		return nil, dferrors.NewValidationError(op, "", "select a sheet first")
	}
	return c.Dataset, nil
}

func (e *Engine) logSkipped(handle, op string, skipped []filter.Skipped) {
	for _, s := range skipped {
		e.log.V(1).Info("filter skipped", "handle", handle, "op", op,
			"column", s.Column, "value", s.Value, "reason", s.Reason)
	}
}
