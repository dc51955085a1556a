// Package tabula loads tabular files, retypes their columns, derives
// calculated columns and computes chart series and pivot tables over them.
// This package is the sole public API for the library.
package tabula

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/paveg/tabula/internal/aggregate"
	"github.com/paveg/tabula/internal/coerce"
	"github.com/paveg/tabula/internal/config"
	"github.com/paveg/tabula/internal/engine"
	"github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/filter"
	"github.com/paveg/tabula/internal/monitoring"
	"github.com/paveg/tabula/internal/schema"
)

// Request and result types
type (
	Config         = config.Config
	Type           = schema.Type
	RetypeRequest  = coerce.Request
	RetypeResult   = engine.RetypeResult
	LoadResult     = engine.LoadResult
	DatasetSummary = engine.DatasetSummary
	ColumnInfo     = engine.ColumnInfo
	Preview        = engine.Preview
	Filters        = filter.Spec
	ChartKind      = aggregate.ChartKind
	ChartRequest   = aggregate.ChartRequest
	ChartSeries    = aggregate.ChartSeries
	PivotRequest   = aggregate.PivotRequest
	PivotTable     = aggregate.PivotTable
	ValueSpec      = aggregate.ValueSpec
	Agg            = aggregate.Agg
	MetricsSummary = monitoring.MetricsSummary
	Error          = errors.Error
)

// Column types
const (
	String  = schema.String
	Integer = schema.Integer
	Float   = schema.Float
	Boolean = schema.Boolean
)

// Chart kinds
const (
	Bar     = aggregate.Bar
	Line    = aggregate.Line
	Area    = aggregate.Area
	Pie     = aggregate.Pie
	Scatter = aggregate.Scatter
	Boxplot = aggregate.Boxplot
)

// Aggregations
const (
	Sum   = aggregate.Sum
	Mean  = aggregate.Mean
	Count = aggregate.Count
	Min   = aggregate.Min
	Max   = aggregate.Max
)

// Error kinds for errors.Is
var (
	ErrValidation        = errors.ErrValidation
	ErrUnknownColumn     = errors.ErrUnknownColumn
	ErrDuplicateColumn   = errors.ErrDuplicateColumn
	ErrDataLoss          = errors.ErrDataLoss
	ErrCardinality       = errors.ErrCardinality
	ErrMalformedFormula  = errors.ErrMalformedFormula
	ErrIO                = errors.ErrIO
	ErrUnsupportedFormat = errors.ErrUnsupportedFormat
)

// ParseType parses a type name such as "float" or "int".
func ParseType(name string) (Type, bool) {
	return schema.ParseType(name)
}

// Engine is the public entry point. It is safe for concurrent use.
type Engine struct {
	e *engine.Engine
}

// Option configures an Engine.
type Option = engine.Option

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logr.Logger) Option {
	return engine.WithLogger(log)
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return engine.WithConfig(cfg)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return config.NewConfig()
}

// ConfigFromEnv returns the defaults overridden by TABULA_* environment
// variables.
func ConfigFromEnv() Config {
	return config.LoadFromEnv()
}

// LoadConfig reads a .json, .yaml or .yml configuration file.
func LoadConfig(path string) (Config, error) {
	return config.LoadFromFile(path)
}

// New creates an engine.
func New(opts ...Option) (*Engine, error) {
	e, err := engine.New(opts...)
	if err != nil {
		return nil, err
	}
	return &Engine{e: e}, nil
}

// Load parses the file at path into a new dataset context. For workbooks
// with several sheets and no sheet given, the result lists the sheets and
// SelectSheet completes the load.
func (t *Engine) Load(ctx context.Context, path, sheet string) (*LoadResult, error) {
	return t.e.Load(ctx, path, sheet)
}

// SelectSheet switches the context to another sheet of its workbook.
func (t *Engine) SelectSheet(ctx context.Context, handle, sheet string) (*DatasetSummary, error) {
	return t.e.SelectSheet(ctx, handle, sheet)
}

// Retype converts columns and rewrites the backing file.
func (t *Engine) Retype(ctx context.Context, handle string, requests []RetypeRequest) (*RetypeResult, error) {
	return t.e.Retype(ctx, handle, requests)
}

// AddCalculatedColumn appends a column computed from an arithmetic formula.
func (t *Engine) AddCalculatedColumn(ctx context.Context, handle, name, formula string) (*ColumnInfo, error) {
	return t.e.AddCalculatedColumn(ctx, handle, name, formula)
}

// Chart computes chart series.
func (t *Engine) Chart(ctx context.Context, handle string, req ChartRequest) (*ChartSeries, error) {
	return t.e.Chart(ctx, handle, req)
}

// AvailableCharts lists the chart kinds suited to the columns; y may be
// empty.
func (t *Engine) AvailableCharts(ctx context.Context, handle, x, y string) ([]ChartKind, error) {
	return t.e.AvailableCharts(ctx, handle, x, y)
}

// Pivot computes a pivot table.
func (t *Engine) Pivot(ctx context.Context, handle string, req PivotRequest) (*PivotTable, error) {
	return t.e.Pivot(ctx, handle, req)
}

// DescribeColumns lists the columns of the dataset.
func (t *Engine) DescribeColumns(ctx context.Context, handle string) ([]ColumnInfo, error) {
	return t.e.DescribeColumns(ctx, handle)
}

// Preview returns up to limit rows rendered as text.
func (t *Engine) Preview(ctx context.Context, handle string, limit int) (*Preview, error) {
	return t.e.Preview(ctx, handle, limit)
}

// Clear drops a dataset context.
func (t *Engine) Clear(handle string) bool {
	return t.e.Clear(handle)
}

// Metrics summarizes recorded operations when metrics collection is on.
func (t *Engine) Metrics() MetricsSummary {
	return t.e.Metrics()
}

// Config returns the effective configuration.
func (t *Engine) Config() Config {
	return t.e.Config()
}
