package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/paveg/tabula"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func salesFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("Region,Sales\nEast,10\nEast,20\nWest,5\n"), 0o600))
	return path
}

func TestDescribe(t *testing.T) {
	out, err := run(t, "describe", salesFile(t))
	require.NoError(t, err)

	var cols []tabula.ColumnInfo
	require.NoError(t, json.Unmarshal([]byte(out), &cols))
	require.Len(t, cols, 2)
	assert.Equal(t, "Sales", cols[1].Name)
	assert.Equal(t, tabula.Integer, cols[1].Type)
}

func TestPivotCommand(t *testing.T) {
	out, err := run(t, "pivot", salesFile(t), "--rows", "Region", "--value", "Sales:sum")
	require.NoError(t, err)

	var table tabula.PivotTable
	require.NoError(t, json.Unmarshal([]byte(out), &table))
	assert.Equal(t, []string{"Region", "Sales"}, table.Headers)
	assert.Equal(t, []any{"TOTAL", 35.0}, table.Totals)
}

func TestChartCommandWithFilter(t *testing.T) {
	out, err := run(t, "chart", salesFile(t), "-x", "Region", "-y", "Sales", "-f", "Region=East")
	require.NoError(t, err)

	var series tabula.ChartSeries
	require.NoError(t, json.Unmarshal([]byte(out), &series))
	assert.Equal(t, []string{"East"}, series.Labels)
	assert.Equal(t, []float64{30}, series.Values)
}

func TestRetypeAndFormulaRewriteFile(t *testing.T) {
	path := salesFile(t)

	_, err := run(t, "retype", path, "Sales=float")
	require.NoError(t, err)
	_, err = run(t, "formula", path, "Double", "Sales * 2")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Region,Sales,Double\nEast,10,20\nEast,20,40\nWest,5,10\n", string(data))
}

func TestRetypeRejectsBadArguments(t *testing.T) {
	_, err := run(t, "retype", salesFile(t), "Sales")
	assert.Error(t, err)
	_, err = run(t, "retype", salesFile(t), "Sales=date")
	assert.Error(t, err)
}

func TestParseFilters(t *testing.T) {
	spec, err := parseFilters([]string{"Region=East", "Year=2023", "Year=2024"})
	require.NoError(t, err)
	assert.Equal(t, tabula.Filters{"Region": "East", "Year": []any{"2023", "2024"}}, spec)

	_, err = parseFilters([]string{"novalue"})
	assert.Error(t, err)
}

func TestParseValueSpecs(t *testing.T) {
	specs, err := parseValueSpecs([]string{"Sales", "Units:MAX"})
	require.NoError(t, err)
	assert.Equal(t, []tabula.ValueSpec{
		{Column: "Sales", Agg: tabula.Sum},
		{Column: "Units", Agg: tabula.Max},
	}, specs)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tabula dev")
}

func TestEnvironmentConfig(t *testing.T) {
	t.Setenv("TABULA_PREVIEW_LIMIT", "1")

	out, err := run(t, "preview", salesFile(t), "--limit", "0")
	require.NoError(t, err)

	var p tabula.Preview
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, [][]string{{"East", "10"}}, p.Rows)
	assert.Equal(t, 3, p.TotalRows)
}
