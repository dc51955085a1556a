package aggregate

import (
	"sort"
	"strings"

	"github.com/paveg/tabula/internal/common"
	"github.com/paveg/tabula/internal/config"
	"github.com/paveg/tabula/internal/dataframe"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/filter"
	"github.com/paveg/tabula/internal/series"
	"github.com/paveg/tabula/internal/validation"
	"github.com/shopspring/decimal"
)

// Agg is a pivot aggregation function.
type Agg string

// Aggregation functions
const (
	Sum   Agg = "sum"
	Mean  Agg = "mean"
	Count Agg = "count"
	Min   Agg = "min"
	Max   Agg = "max"
)

// Aggregations lists every supported function.
var Aggregations = []Agg{Sum, Mean, Count, Min, Max}

// TotalLabel heads the totals row.
const TotalLabel = "TOTAL"

// ValueSpec names a column and how to aggregate it.
type ValueSpec struct {
	Column string `json:"column"`
	Agg    Agg    `json:"agg"`
}

// Label is the header used when several value specs share a table.
func (v ValueSpec) Label() string {
	return common.FormatLabeled(v.Column, string(v.Agg))
}

// PivotRequest describes a pivot table. ColumnColumns may be empty; Mode
// overrides the configured cardinality mode when set.
type PivotRequest struct {
	RowColumns    []string    `json:"row_columns"`
	ColumnColumns []string    `json:"column_columns,omitempty"`
	Values        []ValueSpec `json:"values"`
	Filters       filter.Spec `json:"filters,omitempty"`
	Mode          string      `json:"mode,omitempty"`
}

// PivotTable is the render-ready pivot result. Numeric cells are float64
// rounded to two places; missing cells are nil.
type PivotTable struct {
	Headers   []string         `json:"headers"`
	Rows      [][]any          `json:"rows"`
	Totals    []any            `json:"totals,omitempty"`
	Truncated bool             `json:"truncated"`
	Skipped   []filter.Skipped `json:"-"`
}

// Pivot validates req, filters ds and builds the pivot table.
func Pivot(ds *dataframe.Dataset, req PivotRequest, limits Limits) (*PivotTable, error) {
	if err := validatePivot(ds, req); err != nil {
		return nil, err
	}

	filtered, skipped := filter.ApplyWithReport(ds, req.Filters)
	defer filtered.Release()

	table := &PivotTable{Skipped: skipped}
	if filtered.Len() == 0 {
		table.Headers = append([]string(nil), req.RowColumns...)
		if len(req.ColumnColumns) == 0 {
			table.Headers = append(table.Headers, valueHeaders(req.Values)...)
		}
		table.Rows = [][]any{}
		return table, nil
	}

	var keys *pivotKeys
	if len(req.ColumnColumns) > 0 {
		keys = newPivotKeys(filtered, req.ColumnColumns)
		mode, limit := limits.cardinalityCap(req.Mode)
		if len(keys.distinct) > limit {
			err := dferrors.NewCardinalityError("Pivot", strings.Join(req.ColumnColumns, ", "), len(keys.distinct), limit)
			err.Message += " (" + mode + " mode)"
			return nil, err
		}
	}

	groups, err := filtered.GroupBy(req.RowColumns...)
	if err != nil {
		return nil, err
	}

	valueCols := make([]*series.Column, len(req.Values))
	numeric := make([]bool, len(req.Values))
	for i, spec := range req.Values {
		valueCols[i], _ = filtered.Column(spec.Column)
		numeric[i] = validation.IsNumericCoercible(valueCols[i])
	}

	var rows []pivotRow
	if keys == nil {
		rows = flatRows(filtered, req, groups, valueCols, numeric)
		table.Headers = append(append([]string(nil), req.RowColumns...), valueHeaders(req.Values)...)
	} else {
		var headers []string
		rows, headers = pivotedRows(filtered, req, groups, keys, valueCols, numeric)
		table.Headers = append(append([]string(nil), req.RowColumns...), headers...)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return compareValues(rows[i].dims[0], rows[j].dims[0]) < 0
	})
	if keys == nil && limits.PivotRowLimit > 0 && len(rows) > limits.PivotRowLimit {
		rows = rows[:limits.PivotRowLimit]
		table.Truncated = true
	}

	table.Rows = make([][]any, len(rows))
	for i, r := range rows {
		row := make([]any, 0, len(r.dims)+len(r.cells))
		row = append(row, r.dims...)
		for _, c := range r.cells {
			row = append(row, sanitize(c))
		}
		table.Rows[i] = row
	}
	table.Totals = totals(table.Rows, len(req.RowColumns))
	return table, nil
}

func validatePivot(ds *dataframe.Dataset, req PivotRequest) error {
	v := validation.NewCompoundValidator(
		validation.NewRequiredValidator("Pivot", "row column", len(req.RowColumns)),
		validation.NewRequiredValidator("Pivot", "value", len(req.Values)),
		validation.NewColumnValidator(ds, "Pivot", req.RowColumns...),
		validation.NewColumnValidator(ds, "Pivot", req.ColumnColumns...),
	)
	if req.Mode != "" {
		v.Add(validation.NewOneOfValidator("Pivot", "", req.Mode, config.PivotModeBounded, config.PivotModeFull))
	}

	aggs := make([]string, len(Aggregations))
	for i, a := range Aggregations {
		aggs[i] = string(a)
	}
	for _, spec := range req.Values {
		v.Add(
			validation.NewColumnValidator(ds, "Pivot", spec.Column),
			validation.NewOneOfValidator("Pivot", spec.Column, string(spec.Agg), aggs...),
		)
		if spec.Agg == Sum || spec.Agg == Mean {
			v.Add(validation.NewNumericValidator(ds, "Pivot", spec.Column))
		}
	}
	return v.Validate()
}

func valueHeaders(specs []ValueSpec) []string {
	if len(specs) == 1 {
		return []string{specs[0].Column}
	}
	headers := make([]string, len(specs))
	for i, spec := range specs {
		headers[i] = spec.Label()
	}
	return headers
}

// pivotKeys holds the synthetic pivot key of every row.
type pivotKeys struct {
	byRow    []string
	valid    []bool
	distinct []string
}

func newPivotKeys(ds *dataframe.Dataset, columns []string) *pivotKeys {
	cols := make([]*series.Column, len(columns))
	for i, name := range columns {
		cols[i], _ = ds.Column(name)
	}

	pk := &pivotKeys{byRow: make([]string, ds.Len()), valid: make([]bool, ds.Len())}
	typed := make(map[string][]any)
	parts := make([]string, len(cols))

rows:
	for i := 0; i < ds.Len(); i++ {
		for j, c := range cols {
			if c.IsNull(i) {
				continue rows
			}
			parts[j] = c.Text(i)
		}
		key := common.JoinKey(parts...)
		pk.byRow[i] = key
		pk.valid[i] = true
		if _, seen := typed[key]; !seen {
			tuple := make([]any, len(cols))
			for j, c := range cols {
				tuple[j] = c.Value(i)
			}
			typed[key] = tuple
			pk.distinct = append(pk.distinct, key)
		}
	}

	sort.SliceStable(pk.distinct, func(i, j int) bool {
		return compareTuples(typed[pk.distinct[i]], typed[pk.distinct[j]]) < 0
	})
	return pk
}

type pivotRow struct {
	dims  []any
	cells []any
}

func rowDims(ds *dataframe.Dataset, columns []string, row int) []any {
	dims := make([]any, len(columns))
	for i, name := range columns {
		col, _ := ds.Column(name)
		dims[i] = col.Value(row)
	}
	return dims
}

func flatRows(ds *dataframe.Dataset, req PivotRequest, groups *dataframe.GroupIndex, cols []*series.Column, numeric []bool) []pivotRow {
	rows := make([]pivotRow, 0, groups.Len())
	for _, g := range groups.Groups() {
		r := pivotRow{dims: rowDims(ds, req.RowColumns, g.Rows[0]), cells: make([]any, len(req.Values))}
		for i, spec := range req.Values {
			acc := newAccumulator(cols[i], numeric[i])
			for _, row := range g.Rows {
				acc.add(row)
			}
			r.cells[i] = acc.result(spec.Agg)
		}
		rows = append(rows, r)
	}
	return rows
}

func pivotedRows(ds *dataframe.Dataset, req PivotRequest, groups *dataframe.GroupIndex, keys *pivotKeys,
	cols []*series.Column, numeric []bool) ([]pivotRow, []string) {
	position := make(map[string]int, len(keys.distinct))
	for i, key := range keys.distinct {
		position[key] = i
	}

	var headers []string
	for _, key := range keys.distinct {
		if len(req.Values) == 1 {
			headers = append(headers, key)
			continue
		}
		for _, spec := range req.Values {
			headers = append(headers, common.JoinKey(key, spec.Label()))
		}
	}

	width := len(req.Values)
	rows := make([]pivotRow, 0, groups.Len())
	for _, g := range groups.Groups() {
		accs := make(map[int][]*accumulator)
		first := -1
		for _, row := range g.Rows {
			if !keys.valid[row] {
				continue
			}
			if first < 0 {
				first = row
			}
			p := position[keys.byRow[row]]
			if accs[p] == nil {
				accs[p] = make([]*accumulator, width)
				for i := range req.Values {
					accs[p][i] = newAccumulator(cols[i], numeric[i])
				}
			}
			for _, acc := range accs[p] {
				acc.add(row)
			}
		}
		if first < 0 {
			continue
		}

		r := pivotRow{dims: rowDims(ds, req.RowColumns, first), cells: make([]any, len(headers))}
		for p, list := range accs {
			for i, acc := range list {
				r.cells[p*width+i] = acc.result(req.Values[i].Agg)
			}
		}
		rows = append(rows, r)
	}
	return rows, headers
}

// accumulator folds the non-null cells of one value column.
type accumulator struct {
	col     *series.Column
	numeric bool

	count    int
	nums     int
	sum      float64
	min, max float64
	minText  string
	maxText  string
}

func newAccumulator(col *series.Column, numeric bool) *accumulator {
	return &accumulator{col: col, numeric: numeric}
}

func (a *accumulator) add(row int) {
	if a.col.IsNull(row) {
		return
	}
	a.count++

	if !a.numeric {
		text := a.col.Text(row)
		if a.count == 1 || text < a.minText {
			a.minText = text
		}
		if a.count == 1 || text > a.maxText {
			a.maxText = text
		}
		return
	}

	v, ok := numberAt(a.col, row)
	if !ok {
		return
	}
	if a.nums == 0 || v < a.min {
		a.min = v
	}
	if a.nums == 0 || v > a.max {
		a.max = v
	}
	a.nums++
	a.sum += v
}

func (a *accumulator) result(agg Agg) any {
	switch agg {
	case Count:
		return float64(a.count)
	case Sum:
		return a.sum
	case Mean:
		if a.nums == 0 {
			return nil
		}
		return a.sum / float64(a.nums)
	case Min, Max:
		if !a.numeric {
			if a.count == 0 {
				return nil
			}
			if agg == Min {
				return a.minText
			}
			return a.maxText
		}
		if a.nums == 0 {
			return nil
		}
		if agg == Min {
			return a.min
		}
		return a.max
	default:
		return nil
	}
}

// totals sums every value column over rows, rounded to two places. The
// first dimension holds TotalLabel, other dimensions and columns without
// numbers hold "".
func totals(rows [][]any, dims int) []any {
	if len(rows) == 0 {
		return nil
	}

	out := make([]any, len(rows[0]))
	for i := range out {
		out[i] = ""
	}
	out[0] = TotalLabel

	for c := dims; c < len(out); c++ {
		total := decimal.Zero
		found := false
		for _, row := range rows {
			if f, ok := row[c].(float64); ok {
				total = total.Add(decimal.NewFromFloat(f))
				found = true
			}
		}
		if found {
			out[c], _ = total.Round(2).Float64()
		}
	}
	return out
}
