package aggregate

import (
	"fmt"
	"sort"

	"github.com/paveg/tabula/internal/dataframe"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/filter"
	"github.com/paveg/tabula/internal/schema"
	"github.com/paveg/tabula/internal/series"
	"github.com/paveg/tabula/internal/validation"
)

// ChartKind names a chart shape.
type ChartKind string

// Chart kinds
const (
	Bar     ChartKind = "bar"
	Line    ChartKind = "line"
	Area    ChartKind = "area"
	Pie     ChartKind = "pie"
	Scatter ChartKind = "scatter"
	Boxplot ChartKind = "boxplot"
)

// ChartKinds lists every supported kind.
var ChartKinds = []ChartKind{Bar, Line, Area, Pie, Scatter, Boxplot}

// Valid reports whether k is a supported kind.
func (k ChartKind) Valid() bool {
	for _, known := range ChartKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ChartRequest asks for one chart. YColumn is optional; without it the
// chart counts occurrences of each x value.
type ChartRequest struct {
	XColumn string      `json:"x_column"`
	YColumn string      `json:"y_column,omitempty"`
	Kind    ChartKind   `json:"kind"`
	Filters filter.Spec `json:"filters,omitempty"`
}

// Slice is one pie segment.
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Point is one scatter point. Coordinates are float64 for numeric columns
// and strings otherwise.
type Point struct {
	X any `json:"x"`
	Y any `json:"y"`
}

// ChartSeries is the render-ready result of Chart. Which fields are set
// depends on Kind: Labels/Values for bar, line and area, Slices for pie,
// Points for scatter and Box for boxplot.
type ChartSeries struct {
	Kind    ChartKind        `json:"kind"`
	Labels  []string         `json:"labels,omitempty"`
	Values  []float64        `json:"values,omitempty"`
	Slices  []Slice          `json:"slices,omitempty"`
	Points  []Point          `json:"points,omitempty"`
	Box     *BoxplotSeries   `json:"boxplot,omitempty"`
	Skipped []filter.Skipped `json:"-"`
}

// Chart filters ds and computes the series for req.
func Chart(ds *dataframe.Dataset, req ChartRequest, limits Limits) (*ChartSeries, error) {
	if err := validateChart(ds, req); err != nil {
		return nil, err
	}

	filtered, skipped := filter.ApplyWithReport(ds, req.Filters)
	defer filtered.Release()

	x, _ := filtered.Column(req.XColumn)
	var (
		out *ChartSeries
		err error
	)
	if req.YColumn == "" {
		out = frequency(x, req.Kind, limits)
	} else {
		y, _ := filtered.Column(req.YColumn)
		out, err = twoColumn(x, y, req.Kind, limits)
	}
	if err != nil {
		return nil, err
	}
	out.Skipped = skipped
	return out, nil
}

func validateChart(ds *dataframe.Dataset, req ChartRequest) error {
	v := validation.NewCompoundValidator(
		validation.ValidatorFunc(func() error {
			if req.XColumn == "" {
				return dferrors.NewValidationError("Chart", "", "x column is required")
			}
			return nil
		}),
		validation.NewOneOfValidator("Chart", "", string(req.Kind), kindNames()...),
		validation.NewColumnValidator(ds, "Chart", req.XColumn),
	)
	if req.YColumn != "" {
		v.Add(validation.NewColumnValidator(ds, "Chart", req.YColumn))
	}
	if err := v.Validate(); err != nil {
		return err
	}

	switch {
	case req.YColumn == "" && (req.Kind == Scatter || req.Kind == Boxplot):
		return dferrors.NewValidationError("Chart", "", fmt.Sprintf("%s charts need a y column", req.Kind))
	case req.Kind == Boxplot:
		y, _ := ds.Column(req.YColumn)
		if !validation.IsNumericCoercible(y) {
			return dferrors.NewValidationError("Chart", req.YColumn, "boxplot needs a numeric y column")
		}
	}
	return nil
}

func kindNames() []string {
	names := make([]string, len(ChartKinds))
	for i, k := range ChartKinds {
		names[i] = string(k)
	}
	return names
}

// frequency counts the occurrences of each non-null x value.
func frequency(x *series.Column, kind ChartKind, limits Limits) *ChartSeries {
	gi := dataframe.NewGroupIndex(x.Len()/4 + 1)
	for i := 0; i < x.Len(); i++ {
		if !x.IsNull(i) {
			gi.Add(x.Text(i), i)
		}
	}

	ranked := make([]rankedGroup, 0, gi.Len())
	for _, g := range gi.Groups() {
		ranked = append(ranked, rankedGroup{label: g.Key, value: float64(len(g.Rows))})
	}

	limit := limits.FrequencyLimit
	if kind == Pie {
		limit = limits.PieLimit
	}
	return emitRanked(kind, top(ranked, limit))
}

func twoColumn(x, y *series.Column, kind ChartKind, limits Limits) (*ChartSeries, error) {
	switch kind {
	case Scatter:
		return scatter(x, y, limits.ScatterLimit), nil
	case Boxplot:
		return &ChartSeries{Kind: Boxplot, Box: boxplot(x, y, limits)}, nil
	}

	sum := y.Type().IsNumeric()
	gi := dataframe.NewGroupIndex(x.Len()/4 + 1)
	for i := 0; i < x.Len(); i++ {
		if x.IsNull(i) || y.IsNull(i) {
			continue
		}
		gi.Add(x.Text(i), i)
	}

	ranked := make([]rankedGroup, 0, gi.Len())
	for _, g := range gi.Groups() {
		value := float64(len(g.Rows))
		if sum {
			value = 0
			for _, row := range g.Rows {
				f, _ := y.Float(row)
				value += f
			}
		}
		ranked = append(ranked, rankedGroup{label: g.Key, value: value})
	}

	limit := limits.CategoryLimit
	if kind == Pie {
		limit = limits.PieLimit
	}
	return emitRanked(kind, top(ranked, limit)), nil
}

type rankedGroup struct {
	label string
	value float64
}

// top sorts groups by value, largest first, keeping first-encounter order
// among ties, and keeps at most limit of them.
func top(groups []rankedGroup, limit int) []rankedGroup {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].value > groups[j].value
	})
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	return groups
}

func emitRanked(kind ChartKind, groups []rankedGroup) *ChartSeries {
	out := &ChartSeries{Kind: kind}
	if kind == Pie {
		out.Slices = make([]Slice, len(groups))
		for i, g := range groups {
			out.Slices[i] = Slice{Name: g.label, Value: round2(g.value)}
		}
		return out
	}

	out.Labels = make([]string, len(groups))
	out.Values = make([]float64, len(groups))
	for i, g := range groups {
		out.Labels[i] = g.label
		out.Values[i] = round2(g.value)
	}
	return out
}

func scatter(x, y *series.Column, limit int) *ChartSeries {
	out := &ChartSeries{Kind: Scatter, Points: []Point{}}
	for i := 0; i < x.Len(); i++ {
		if limit > 0 && len(out.Points) >= limit {
			break
		}
		if x.IsNull(i) || y.IsNull(i) {
			continue
		}
		out.Points = append(out.Points, Point{X: coordinate(x, i), Y: coordinate(y, i)})
	}
	return out
}

func coordinate(col *series.Column, i int) any {
	if f, ok := col.Float(i); ok {
		return f
	}
	return col.Text(i)
}

// AvailableKinds lists the chart kinds that make sense for an x column of
// type x and an optional y column of type y.
func AvailableKinds(x schema.Type, y *schema.Type) []ChartKind {
	categorical := !x.IsNumeric()
	yNumeric := y != nil && y.IsNumeric()
	yUsable := y == nil || yNumeric

	var kinds []ChartKind
	if yUsable {
		kinds = append(kinds, Bar, Line, Area)
	}
	if categorical && yUsable {
		kinds = append(kinds, Pie)
	}
	if x.IsNumeric() && yNumeric {
		kinds = append(kinds, Scatter)
	}
	if categorical && yNumeric {
		kinds = append(kinds, Boxplot)
	}
	return kinds
}
