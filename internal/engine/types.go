package engine

import (
	"github.com/paveg/tabula/internal/dataframe"
	"github.com/paveg/tabula/internal/io"
	"github.com/paveg/tabula/internal/schema"
	"github.com/paveg/tabula/internal/store"
)

// ColumnInfo describes one column of a dataset.
type ColumnInfo struct {
	Name      string      `json:"name"`
	Type      schema.Type `json:"type"`
	IsNumeric bool        `json:"is_numeric"`
	Nulls     int         `json:"nulls"`
	Derived   bool        `json:"derived"`
	Formula   string      `json:"formula,omitempty"`
}

// DatasetSummary describes a loaded dataset.
type DatasetSummary struct {
	Source  io.Source    `json:"source"`
	Sheets  []string     `json:"sheets,omitempty"`
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
}

// LoadResult is the outcome of Load. Exactly one of Summary and
// PendingSheets is set: a multi-sheet source loaded without a sheet
// reports the sheet names and waits for SelectSheet.
type LoadResult struct {
	Handle        string          `json:"handle"`
	Summary       *DatasetSummary `json:"summary,omitempty"`
	PendingSheets []string        `json:"pending_sheets,omitempty"`
}

// RetypeResult reports a committed retype.
type RetypeResult struct {
	Warnings []Warning             `json:"warnings"`
	Applied  map[string]schema.Type `json:"applied"`
	Source   io.Source             `json:"source"`
}

// Warning is a non-fatal advisory attached to a successful mutation.
type Warning struct {
	Column  string `json:"column"`
	Message string `json:"message"`
}

// Preview is the first rows of a dataset rendered as text.
type Preview struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"total_rows"`
}

func describe(c *store.Context) []ColumnInfo {
	if c.Dataset == nil {
		return nil
	}
	infos := make([]ColumnInfo, 0, c.Dataset.Width())
	for _, name := range c.Dataset.Columns() {
		infos = append(infos, columnInfo(c, c.Dataset, name))
	}
	return infos
}

func columnInfo(c *store.Context, ds *dataframe.Dataset, name string) ColumnInfo {
	col, _ := ds.Column(name)
	info := ColumnInfo{
		Name:      name,
		Type:      col.Type(),
		IsNumeric: col.Type().IsNumeric(),
		Nulls:     col.NullCount(),
	}
	if f, ok := c.Formula(name); ok {
		info.Derived = true
		info.Formula = f
	}
	return info
}

func summarize(c *store.Context) *DatasetSummary {
	return &DatasetSummary{
		Source:  c.Source,
		Sheets:  c.Sheets,
		Rows:    c.Dataset.Len(),
		Columns: describe(c),
	}
}
