package aggregate_test

import (
	"fmt"
	"testing"

	"github.com/paveg/tabula/internal/aggregate"
	"github.com/paveg/tabula/internal/dataframe"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/filter"
	"github.com/paveg/tabula/internal/schema"
	"github.com/paveg/tabula/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func regionSales(t *testing.T) *dataframe.Dataset {
	t.Helper()
	ds := dataframe.MustNew(
		series.Of("Region", []string{"West", "East", "East", "North", "West", ""}, []bool{true, true, true, true, true, false}, nil),
		series.Of("Sales", []float64{5, 10, 20, 1, 2.5, 100}, nil, nil),
		series.Of("Rep", []string{"ann", "bob", "cid", "dan", "eve", "fay"}, nil, nil),
	)
	t.Cleanup(ds.Release)
	return ds
}

func TestChartFrequencyTruncation(t *testing.T) {
	values := make([]string, 0, 1000)
	for i := 0; i < 100; i++ {
		for j := 0; j <= i%7; j++ {
			values = append(values, fmt.Sprintf("v%02d", i))
		}
	}
	ds := dataframe.MustNew(series.Of("code", values, nil, nil))
	defer ds.Release()

	out, err := aggregate.Chart(ds, aggregate.ChartRequest{XColumn: "code", Kind: aggregate.Bar}, aggregate.DefaultLimits())
	require.NoError(t, err)

	require.Len(t, out.Labels, 30)
	require.Len(t, out.Values, 30)
	assert.IsNonIncreasing(t, out.Values)
	assert.Equal(t, 7.0, out.Values[0])
	assert.Equal(t, "v06", out.Labels[0])
}

func TestChartFrequencyTiesKeepFirstEncounter(t *testing.T) {
	ds := dataframe.MustNew(series.Of("x", []string{"b", "a", "b", "a", "c"}, nil, nil))
	defer ds.Release()

	out, err := aggregate.Chart(ds, aggregate.ChartRequest{XColumn: "x", Kind: aggregate.Line}, aggregate.DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, out.Labels)
	assert.Equal(t, []float64{2, 2, 1}, out.Values)
}

func TestChartPieFrequency(t *testing.T) {
	values := make([]int64, 50)
	for i := range values {
		values[i] = int64(i)
	}
	ds := dataframe.MustNew(series.Of("n", values, nil, nil))
	defer ds.Release()

	out, err := aggregate.Chart(ds, aggregate.ChartRequest{XColumn: "n", Kind: aggregate.Pie}, aggregate.DefaultLimits())
	require.NoError(t, err)
	assert.Len(t, out.Slices, 20)
	assert.Empty(t, out.Labels)
	assert.Equal(t, aggregate.Slice{Name: "0", Value: 1}, out.Slices[0])
}

func TestChartTwoColumn(t *testing.T) {
	ds := regionSales(t)

	out, err := aggregate.Chart(ds, aggregate.ChartRequest{XColumn: "Region", YColumn: "Sales", Kind: aggregate.Bar}, aggregate.DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, []string{"East", "West", "North"}, out.Labels)
	assert.Equal(t, []float64{30, 7.5, 1}, out.Values)

	out, err = aggregate.Chart(ds, aggregate.ChartRequest{XColumn: "Region", YColumn: "Rep", Kind: aggregate.Pie}, aggregate.DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, []aggregate.Slice{{Name: "West", Value: 2}, {Name: "East", Value: 2}, {Name: "North", Value: 1}}, out.Slices)
}

func TestChartAppliesFilters(t *testing.T) {
	ds := regionSales(t)

	out, err := aggregate.Chart(ds, aggregate.ChartRequest{
		XColumn: "Region",
		YColumn: "Sales",
		Kind:    aggregate.Area,
		Filters: filter.Spec{"Region": []string{"East", "North"}, "Sales": "lots"},
	}, aggregate.DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, []string{"East", "North"}, out.Labels)
	require.Len(t, out.Skipped, 1)
	assert.Equal(t, "Sales", out.Skipped[0].Column)
}

func TestChartScatter(t *testing.T) {
	ds := regionSales(t)
	limits := aggregate.DefaultLimits()
	limits.ScatterLimit = 3

	out, err := aggregate.Chart(ds, aggregate.ChartRequest{XColumn: "Sales", YColumn: "Region", Kind: aggregate.Scatter}, limits)
	require.NoError(t, err)
	assert.Equal(t, []aggregate.Point{
		{X: 5.0, Y: "West"},
		{X: 10.0, Y: "East"},
		{X: 20.0, Y: "East"},
	}, out.Points)
}

func TestChartBoxplot(t *testing.T) {
	ds := dataframe.MustNew(
		series.Of("g", []string{"b", "a", "a", "a", "a", "a", "b", "b"}, nil, nil),
		series.Of("v", []float64{7, 1, 2, 3, 4, 100, 8, 9}, nil, nil),
	)
	defer ds.Release()

	out, err := aggregate.Chart(ds, aggregate.ChartRequest{XColumn: "g", YColumn: "v", Kind: aggregate.Boxplot}, aggregate.DefaultLimits())
	require.NoError(t, err)
	require.NotNil(t, out.Box)

	assert.Equal(t, []string{"a", "b"}, out.Box.Categories)
	assert.Equal(t, aggregate.Box{1, 2, 3, 4, 4}, out.Box.Boxes[0])
	assert.Equal(t, aggregate.Box{7, 7.5, 8, 8.5, 9}, out.Box.Boxes[1])
	assert.Equal(t, []aggregate.Outlier{{Category: "a", Value: 100}}, out.Box.Outliers)
}

func TestComputeBoxFenceInvariant(t *testing.T) {
	samples := [][]float64{
		{1, 2, 3, 4, 100},
		{-50, 1, 1, 2, 2, 3, 3, 90},
		{5},
		{2, 2, 2, 2, 40, -40},
		{0.5, 0.25, 10, 11, 12, 13, 14, 15, 60},
	}

	for i, values := range samples {
		t.Run(fmt.Sprintf("sample %d", i), func(t *testing.T) {
			s := aggregate.ComputeBox(values, 0)
			for _, o := range s.Outliers {
				assert.True(t, o < s.LowerFence || o > s.UpperFence, "outlier %v inside fences", o)
			}
			for _, v := range values {
				if v >= s.LowerFence && v <= s.UpperFence {
					assert.GreaterOrEqual(t, v, s.Low)
					assert.LessOrEqual(t, v, s.High)
				}
			}
			assert.GreaterOrEqual(t, s.Low, s.LowerFence)
			assert.LessOrEqual(t, s.High, s.UpperFence)
		})
	}
}

func TestComputeBoxOutlierLimit(t *testing.T) {
	values := []float64{10, 10, 10, 10, 10, 10, -1, -2, 50, 60}
	s := aggregate.ComputeBox(values, 2)
	assert.Len(t, s.Outliers, 2)
	assert.Equal(t, []float64{-2, -1}, s.Outliers)
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, aggregate.Quantile(sorted, 0.25), 1e-12)
	assert.InDelta(t, 2.5, aggregate.Quantile(sorted, 0.5), 1e-12)
	assert.InDelta(t, 3.25, aggregate.Quantile(sorted, 0.75), 1e-12)
	assert.Equal(t, 7.0, aggregate.Quantile([]float64{7}, 0.9))
}

func TestChartErrors(t *testing.T) {
	ds := regionSales(t)
	limits := aggregate.DefaultLimits()

	tests := []struct {
		name string
		req  aggregate.ChartRequest
		kind error
	}{
		{"missing x", aggregate.ChartRequest{Kind: aggregate.Bar}, dferrors.ErrValidation},
		{"unknown kind", aggregate.ChartRequest{XColumn: "Region", Kind: "radar"}, dferrors.ErrValidation},
		{"unknown x", aggregate.ChartRequest{XColumn: "City", Kind: aggregate.Bar}, dferrors.ErrUnknownColumn},
		{"unknown y", aggregate.ChartRequest{XColumn: "Region", YColumn: "Profit", Kind: aggregate.Bar}, dferrors.ErrUnknownColumn},
		{"scatter without y", aggregate.ChartRequest{XColumn: "Sales", Kind: aggregate.Scatter}, dferrors.ErrValidation},
		{"boxplot without y", aggregate.ChartRequest{XColumn: "Region", Kind: aggregate.Boxplot}, dferrors.ErrValidation},
		{"boxplot text y", aggregate.ChartRequest{XColumn: "Region", YColumn: "Rep", Kind: aggregate.Boxplot}, dferrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := aggregate.Chart(ds, tt.req, limits)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestAvailableKinds(t *testing.T) {
	num := schema.Float
	text := schema.String

	assert.Equal(t, []aggregate.ChartKind{aggregate.Bar, aggregate.Line, aggregate.Area, aggregate.Pie},
		aggregate.AvailableKinds(schema.String, nil))
	assert.Equal(t, []aggregate.ChartKind{aggregate.Bar, aggregate.Line, aggregate.Area, aggregate.Pie, aggregate.Boxplot},
		aggregate.AvailableKinds(schema.String, &num))
	assert.Equal(t, []aggregate.ChartKind{aggregate.Bar, aggregate.Line, aggregate.Area, aggregate.Scatter},
		aggregate.AvailableKinds(schema.Integer, &num))
	assert.Empty(t, aggregate.AvailableKinds(schema.Integer, &text))
}
