package aggregate_test

import (
	"fmt"
	"testing"

	"github.com/paveg/tabula/internal/aggregate"
	"github.com/paveg/tabula/internal/dataframe"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/filter"
	"github.com/paveg/tabula/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPivotRegionSalesScenario(t *testing.T) {
	ds := dataframe.MustNew(
		series.Of("Region", []string{"East", "East", "West"}, nil, nil),
		series.Of("Sales", []float64{10, 20, 5}, nil, nil),
	)
	defer ds.Release()

	table, err := aggregate.Pivot(ds, aggregate.PivotRequest{
		RowColumns: []string{"Region"},
		Values:     []aggregate.ValueSpec{{Column: "Sales", Agg: aggregate.Sum}},
	}, aggregate.DefaultLimits())
	require.NoError(t, err)

	assert.Equal(t, []string{"Region", "Sales"}, table.Headers)
	assert.Equal(t, [][]any{{"East", 30.0}, {"West", 5.0}}, table.Rows)
	assert.Equal(t, []any{"TOTAL", 35.0}, table.Totals)
	assert.False(t, table.Truncated)
}

func salesByYear(t *testing.T) *dataframe.Dataset {
	t.Helper()
	ds := dataframe.MustNew(
		series.Of("Region", []string{"West", "East", "East", "West", "North", "East"}, nil, nil),
		series.Of("Year", []int64{2024, 2023, 2024, 2024, 2023, 0}, []bool{true, true, true, true, true, false}, nil),
		series.Of("Sales", []string{"1,5", "10", "20", "2", "7", "99"}, nil, nil),
		series.Of("Units", []int64{1, 2, 3, 4, 5, 6}, []bool{true, true, false, true, true, true}, nil),
	)
	t.Cleanup(ds.Release)
	return ds
}

func TestPivotWithColumnPivot(t *testing.T) {
	ds := salesByYear(t)

	table, err := aggregate.Pivot(ds, aggregate.PivotRequest{
		RowColumns:    []string{"Region"},
		ColumnColumns: []string{"Year"},
		Values:        []aggregate.ValueSpec{{Column: "Sales", Agg: aggregate.Sum}},
	}, aggregate.DefaultLimits())
	require.NoError(t, err)

	assert.Equal(t, []string{"Region", "2023", "2024"}, table.Headers)
	assert.Equal(t, [][]any{
		{"East", 10.0, 20.0},
		{"North", 7.0, nil},
		{"West", nil, 3.5},
	}, table.Rows)
	assert.Equal(t, []any{"TOTAL", 17.0, 23.5}, table.Totals)
}

func TestPivotSeveralValueSpecs(t *testing.T) {
	ds := salesByYear(t)

	table, err := aggregate.Pivot(ds, aggregate.PivotRequest{
		RowColumns:    []string{"Region"},
		ColumnColumns: []string{"Year"},
		Values: []aggregate.ValueSpec{
			{Column: "Units", Agg: aggregate.Count},
			{Column: "Units", Agg: aggregate.Max},
		},
	}, aggregate.DefaultLimits())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Region",
		"2023 | Units (count)", "2023 | Units (max)",
		"2024 | Units (count)", "2024 | Units (max)",
	}, table.Headers)
	assert.Equal(t, []any{"East", 1.0, 2.0, 0.0, nil}, table.Rows[0])
}

func TestPivotWithoutColumnPivotSeveralSpecs(t *testing.T) {
	ds := salesByYear(t)

	table, err := aggregate.Pivot(ds, aggregate.PivotRequest{
		RowColumns: []string{"Region", "Year"},
		Values: []aggregate.ValueSpec{
			{Column: "Sales", Agg: aggregate.Mean},
			{Column: "Region", Agg: aggregate.Min},
		},
	}, aggregate.DefaultLimits())
	require.NoError(t, err)

	assert.Equal(t, []string{"Region", "Year", "Sales (mean)", "Region (min)"}, table.Headers)
	assert.Equal(t, [][]any{
		{"East", int64(2023), 10.0, "East"},
		{"East", int64(2024), 20.0, "East"},
		{"North", int64(2023), 7.0, "North"},
		{"West", int64(2024), 1.75, "West"},
	}, table.Rows)
	assert.Equal(t, []any{"TOTAL", "", 38.75, ""}, table.Totals)
}

func TestPivotRoundsAndSortsNumerically(t *testing.T) {
	ds := dataframe.MustNew(
		series.Of("Bucket", []int64{10, 9, 10, 10, 100}, nil, nil),
		series.Of("V", []float64{1, 2, 1, 2, 0.125}, nil, nil),
	)
	defer ds.Release()

	table, err := aggregate.Pivot(ds, aggregate.PivotRequest{
		RowColumns: []string{"Bucket"},
		Values:     []aggregate.ValueSpec{{Column: "V", Agg: aggregate.Mean}},
	}, aggregate.DefaultLimits())
	require.NoError(t, err)

	assert.Equal(t, [][]any{
		{int64(9), 2.0},
		{int64(10), 1.33},
		{int64(100), 0.13},
	}, table.Rows)
}

func TestPivotTotalsAreExactToTwoPlaces(t *testing.T) {
	ds := dataframe.MustNew(
		series.Of("Item", []string{"a", "b", "c", "d"}, nil, nil),
		series.Of("Price", []float64{0.1, 0.2, 1.005, 2.675}, nil, nil),
	)
	defer ds.Release()

	table, err := aggregate.Pivot(ds, aggregate.PivotRequest{
		RowColumns: []string{"Item"},
		Values:     []aggregate.ValueSpec{{Column: "Price", Agg: aggregate.Sum}},
	}, aggregate.DefaultLimits())
	require.NoError(t, err)

	sum := 0.0
	for _, row := range table.Rows {
		sum += row[1].(float64)
	}
	assert.Equal(t, []any{"TOTAL", 3.99}, table.Totals)
	assert.InDelta(t, sum, table.Totals[1], 1e-9)
}

func TestPivotTotalsInvariant(t *testing.T) {
	n := 120
	region := make([]string, n)
	kind := make([]string, n)
	amount := make([]float64, n)
	for i := 0; i < n; i++ {
		region[i] = fmt.Sprintf("r%d", i%9)
		kind[i] = fmt.Sprintf("k%d", i%4)
		amount[i] = float64(i) * 1.37
	}
	ds := dataframe.MustNew(
		series.Of("region", region, nil, nil),
		series.Of("kind", kind, nil, nil),
		series.Of("amount", amount, nil, nil),
	)
	defer ds.Release()

	for _, agg := range aggregate.Aggregations {
		t.Run(string(agg), func(t *testing.T) {
			table, err := aggregate.Pivot(ds, aggregate.PivotRequest{
				RowColumns:    []string{"region"},
				ColumnColumns: []string{"kind"},
				Values:        []aggregate.ValueSpec{{Column: "amount", Agg: agg}},
			}, aggregate.DefaultLimits())
			require.NoError(t, err)

			for c := 1; c < len(table.Headers); c++ {
				sum := 0.0
				for _, row := range table.Rows {
					if f, ok := row[c].(float64); ok {
						sum += f
					}
				}
				assert.InDelta(t, sum, table.Totals[c], 1e-6, "column %s", table.Headers[c])
			}
		})
	}
}

func TestPivotCardinalityGuard(t *testing.T) {
	n := 61
	key := make([]int64, n)
	row := make([]string, n)
	val := make([]float64, n)
	for i := 0; i < n; i++ {
		key[i] = int64(i)
		row[i] = "r"
		val[i] = 1
	}
	ds := dataframe.MustNew(
		series.Of("row", row, nil, nil),
		series.Of("key", key, nil, nil),
		series.Of("val", val, nil, nil),
	)
	defer ds.Release()

	req := aggregate.PivotRequest{
		RowColumns:    []string{"row"},
		ColumnColumns: []string{"key"},
		Values:        []aggregate.ValueSpec{{Column: "val", Agg: aggregate.Sum}},
	}

	_, err := aggregate.Pivot(ds, req, aggregate.DefaultLimits())
	require.ErrorIs(t, err, dferrors.ErrCardinality)
	var tabErr *dferrors.Error
	require.ErrorAs(t, err, &tabErr)
	assert.Equal(t, 61, tabErr.Count)

	req.Mode = "full"
	table, err := aggregate.Pivot(ds, req, aggregate.DefaultLimits())
	require.NoError(t, err)
	assert.Len(t, table.Headers, 62)
}

func TestPivotRowCap(t *testing.T) {
	n := 250
	id := make([]int64, n)
	for i := range id {
		id[i] = int64(n - i)
	}
	ds := dataframe.MustNew(series.Of("id", id, nil, nil))
	defer ds.Release()

	table, err := aggregate.Pivot(ds, aggregate.PivotRequest{
		RowColumns: []string{"id"},
		Values:     []aggregate.ValueSpec{{Column: "id", Agg: aggregate.Count}},
	}, aggregate.DefaultLimits())
	require.NoError(t, err)

	assert.True(t, table.Truncated)
	assert.Len(t, table.Rows, 200)
	assert.Equal(t, int64(1), table.Rows[0][0])
	assert.Equal(t, []any{"TOTAL", 200.0}, table.Totals)
}

func TestPivotEmptyAfterFilter(t *testing.T) {
	ds := salesByYear(t)

	table, err := aggregate.Pivot(ds, aggregate.PivotRequest{
		RowColumns: []string{"Region"},
		Values:     []aggregate.ValueSpec{{Column: "Units", Agg: aggregate.Sum}},
		Filters:    filter.Spec{"Region": "South"},
	}, aggregate.DefaultLimits())
	require.NoError(t, err)

	assert.Equal(t, []string{"Region", "Units"}, table.Headers)
	assert.Empty(t, table.Rows)
	assert.Nil(t, table.Totals)
}

func TestPivotValidation(t *testing.T) {
	ds := salesByYear(t)
	sum := []aggregate.ValueSpec{{Column: "Units", Agg: aggregate.Sum}}

	tests := []struct {
		name string
		req  aggregate.PivotRequest
		kind error
	}{
		{"no rows", aggregate.PivotRequest{Values: sum}, dferrors.ErrValidation},
		{"no values", aggregate.PivotRequest{RowColumns: []string{"Region"}}, dferrors.ErrValidation},
		{"unknown row", aggregate.PivotRequest{RowColumns: []string{"City"}, Values: sum}, dferrors.ErrUnknownColumn},
		{"unknown pivot", aggregate.PivotRequest{RowColumns: []string{"Region"}, ColumnColumns: []string{"Month"}, Values: sum}, dferrors.ErrUnknownColumn},
		{"unknown value", aggregate.PivotRequest{RowColumns: []string{"Region"}, Values: []aggregate.ValueSpec{{Column: "Profit", Agg: aggregate.Sum}}}, dferrors.ErrUnknownColumn},
		{"bad agg", aggregate.PivotRequest{RowColumns: []string{"Region"}, Values: []aggregate.ValueSpec{{Column: "Units", Agg: "median"}}}, dferrors.ErrValidation},
		{"sum of text", aggregate.PivotRequest{RowColumns: []string{"Year"}, Values: []aggregate.ValueSpec{{Column: "Region", Agg: aggregate.Sum}}}, dferrors.ErrValidation},
		{"bad mode", aggregate.PivotRequest{RowColumns: []string{"Region"}, Values: sum, Mode: "huge"}, dferrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := aggregate.Pivot(ds, tt.req, aggregate.DefaultLimits())
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}
