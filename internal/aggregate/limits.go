// Package aggregate turns a dataset and a declarative request into bounded,
// render-ready chart series and pivot tables.
package aggregate

import "github.com/paveg/tabula/internal/config"

// Limits bounds the size of aggregation results.
type Limits struct {
	FrequencyLimit          int
	PieLimit                int
	CategoryLimit           int
	ScatterLimit            int
	BoxplotCategoryLimit    int
	BoxplotOutlierLimit     int
	PivotRowLimit           int
	PivotMode               string
	BoundedPivotCardinality int
	FullPivotCardinality    int
}

// LimitsFromConfig copies the aggregation limits out of cfg.
func LimitsFromConfig(cfg config.Config) Limits {
	return Limits{
		FrequencyLimit:          cfg.FrequencyLimit,
		PieLimit:                cfg.PieLimit,
		CategoryLimit:           cfg.CategoryLimit,
		ScatterLimit:            cfg.ScatterLimit,
		BoxplotCategoryLimit:    cfg.BoxplotCategoryLimit,
		BoxplotOutlierLimit:     cfg.BoxplotOutlierLimit,
		PivotRowLimit:           cfg.PivotRowLimit,
		PivotMode:               cfg.PivotMode,
		BoundedPivotCardinality: cfg.BoundedPivotCardinality,
		FullPivotCardinality:    cfg.FullPivotCardinality,
	}
}

// DefaultLimits returns the limits of the default configuration.
func DefaultLimits() Limits {
	return LimitsFromConfig(config.NewConfig())
}

// cardinalityCap returns the pivot key cap for mode, falling back to the
// configured mode when mode is empty.
func (l Limits) cardinalityCap(mode string) (string, int) {
	if mode == "" {
		mode = l.PivotMode
	}
	if mode == config.PivotModeFull {
		return mode, l.FullPivotCardinality
	}
	return config.PivotModeBounded, l.BoundedPivotCardinality
}
