package tabula_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/paveg/tabula"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestEngineWorkflow(t *testing.T) {
	ctx := context.Background()
	path := writeCSV(t, "Region,Sales,Cost\nEast,10,4\nEast,20,5\nWest,5,1\n")

	eng, err := tabula.New()
	require.NoError(t, err)

	res, err := eng.Load(ctx, path, "")
	require.NoError(t, err)
	handle := res.Handle

	_, err = eng.AddCalculatedColumn(ctx, handle, "Margin", "Sales - Cost")
	require.NoError(t, err)

	table, err := eng.Pivot(ctx, handle, tabula.PivotRequest{
		RowColumns: []string{"Region"},
		Values:     []tabula.ValueSpec{{Column: "Margin", Agg: tabula.Sum}},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"East", 21.0}, {"West", 4.0}}, table.Rows)
	assert.Equal(t, []any{"TOTAL", 25.0}, table.Totals)

	chart, err := eng.Chart(ctx, handle, tabula.ChartRequest{
		XColumn: "Region",
		Kind:    tabula.Bar,
		Filters: tabula.Filters{"Sales": []any{10, 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"East", "West"}, chart.Labels)
	assert.Equal(t, []float64{1, 1}, chart.Values)

	assert.True(t, eng.Clear(handle))
}

func TestRetypeDataLoss(t *testing.T) {
	ctx := context.Background()
	path := writeCSV(t, "Name\nann\nbob\n")

	eng, err := tabula.New()
	require.NoError(t, err)
	res, err := eng.Load(ctx, path, "")
	require.NoError(t, err)

	_, err = eng.Retype(ctx, res.Handle, []tabula.RetypeRequest{{Column: "Name", Target: tabula.Float}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, tabula.ErrDataLoss))

	var tErr *tabula.Error
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "Name", tErr.Column)
}

func TestParseType(t *testing.T) {
	typ, ok := tabula.ParseType("int")
	assert.True(t, ok)
	assert.Equal(t, tabula.Integer, typ)

	_, ok = tabula.ParseType("date")
	assert.False(t, ok)
}

func TestInvalidConfig(t *testing.T) {
	cfg := tabula.DefaultConfig()
	cfg.PieLimit = -1
	_, err := tabula.New(tabula.WithConfig(cfg))
	assert.Error(t, err)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TABULA_PIE_LIMIT", "4")
	t.Setenv("TABULA_PIVOT_MODE", "FULL")

	cfg := tabula.ConfigFromEnv()
	assert.Equal(t, 4, cfg.PieLimit)
	assert.Equal(t, "full", cfg.PivotMode)
	assert.Equal(t, tabula.DefaultConfig().PreviewLimit, cfg.PreviewLimit)
}
