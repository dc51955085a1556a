package io

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/paveg/tabula/internal/dataframe"
)

// delimiterCandidates are tried in order; earlier candidates win ties
var delimiterCandidates = []rune{',', ';', '\t', '|'}

const utf8BOM = "\ufeff"

// ReadRaw reads the header row and all data rows. Ragged rows are padded
// with empty cells, and a row longer than the header widens the table.
// Rows whose cells are all blank are skipped.
func (r *DelimitedReader) ReadRaw() (*RawTable, error) {
	buffered := bufio.NewReader(r.reader)

	delimiter := r.options.Delimiter
	if delimiter == 0 {
		// Peek errors mean a short stream; whatever was read is the header line
		head, _ := buffered.Peek(64 * 1024)
		delimiter = SniffDelimiter(firstLine(string(head)))
	}

	r.delimiter = delimiter

	csvReader := csv.NewReader(buffered)
	csvReader.Comma = delimiter
	csvReader.Comment = r.options.Comment
	csvReader.TrimLeadingSpace = r.options.SkipInitialSpace
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading delimited text: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reading delimited text: no header row")
	}

	records[0][0] = strings.TrimPrefix(records[0][0], utf8BOM)
	return newRawTable(records[0], records[1:]), nil
}

// Delimiter returns the delimiter used by the last ReadRaw, either the
// configured one or the sniffed one
func (r *DelimitedReader) Delimiter() rune {
	return r.delimiter
}

// delimiter returns the delimiter the writer uses
func (w *DelimitedWriter) delimiter() rune {
	if w.options.Delimiter == 0 {
		return ','
	}
	return w.options.Delimiter
}

// Write writes the header and every row of ds
func (w *DelimitedWriter) Write(ds *dataframe.Dataset) error {
	csvWriter := csv.NewWriter(w.writer)
	csvWriter.Comma = w.delimiter()

	if err := csvWriter.Write(ds.Columns()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i := 0; i < ds.Len(); i++ {
		if err := csvWriter.Write(ds.RowStrings(i)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// SniffDelimiter picks the candidate delimiter occurring most often in the
// header line, defaulting to a comma.
func SniffDelimiter(header string) rune {
	best, bestCount := ',', 0
	for _, candidate := range delimiterCandidates {
		if n := strings.Count(header, string(candidate)); n > bestCount {
			best, bestCount = candidate, n
		}
	}
	return best
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}

// newRawTable normalizes header and rows into a rectangular table.
func newRawTable(header []string, rows [][]string) *RawTable {
	width := len(header)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	headers := make([]string, width)
	copy(headers, header)

	table := &RawTable{Headers: headers, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		padded := make([]string, width)
		copy(padded, row)
		table.Rows = append(table.Rows, padded)
	}
	return table
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
