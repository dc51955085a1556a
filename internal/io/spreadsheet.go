package io

import (
	"fmt"
	"slices"

	"github.com/extrame/xls"
	"github.com/paveg/tabula/internal/dataframe"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/xuri/excelize/v2"
)

const xlsCharset = "utf-8"

// Sheets lists the sheet names of a spreadsheet source in workbook order.
// Sources without sheets return nil.
func Sheets(path string, format Format) ([]string, error) {
	switch format {
	case FormatSpreadsheet:
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("opening workbook: %w", err)
		}
		defer f.Close()
		return f.GetSheetList(), nil

	case FormatLegacySpreadsheet:
		names, _, err := readXLSWorkbook(path)
		return names, err

	default:
		return nil, nil
	}
}

// ReadSheet reads one sheet of a spreadsheet source. The first row is the header.
func ReadSheet(path string, format Format, sheet string) (*RawTable, error) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatSpreadsheet:
		rows, err = readXLSXRows(path, sheet)
	case FormatLegacySpreadsheet:
		var all map[string][][]string
		_, all, err = readXLSWorkbook(path)
		if err == nil {
			var ok bool
			if rows, ok = all[sheet]; !ok {
				err = unknownSheet(sheet)
			}
		}
	default:
		return nil, fmt.Errorf("format %s has no sheets", format)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return &RawTable{}, nil
	}
	return newRawTable(rows[0], rows[1:]), nil
}

func readXLSXRows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	if !slices.Contains(f.GetSheetList(), sheet) {
		return nil, unknownSheet(sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// readXLSWorkbook reads every sheet of a legacy workbook: the sheet names in
// workbook order and the rows keyed by sheet name.
func readXLSWorkbook(path string) ([]string, map[string][][]string, error) {
	wb, err := xls.Open(path, xlsCharset)
	if err != nil {
		return nil, nil, fmt.Errorf("opening legacy workbook: %w", err)
	}

	names := make([]string, 0, wb.NumSheets())
	sheets := make(map[string][][]string, wb.NumSheets())
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}

		var rows [][]string
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, row.LastCol())
			for c := range cells {
				cells[c] = row.Col(c)
			}
			rows = append(rows, cells)
		}
		names = append(names, sheet.Name)
		sheets[sheet.Name] = rows
	}
	return names, sheets, nil
}

func unknownSheet(sheet string) error {
	return dferrors.NewValidationError("ReadSheet", "", fmt.Sprintf("sheet %q does not exist", sheet))
}

// writeXLSX rewrites the named sheet of the workbook at src with ds and saves
// the workbook to dst. Other sheets are kept as they are.
func writeXLSX(src, dst, sheet string, ds *dataframe.Dataset) error {
	f, err := excelize.OpenFile(src)
	if err != nil {
		return fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	if !slices.Contains(f.GetSheetList(), sheet) {
		return unknownSheet(sheet)
	}

	old, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	oldWidth := 0
	for _, row := range old {
		oldWidth = max(oldWidth, len(row))
	}

	if err := writeSheetRows(f, sheet, ds, oldWidth); err != nil {
		return err
	}

	// Drop leftover rows from the bottom up
	for r := len(old); r > ds.Len()+1; r-- {
		if err := f.RemoveRow(sheet, r); err != nil {
			return fmt.Errorf("clearing row %d: %w", r, err)
		}
	}

	return f.SaveAs(dst)
}

// upgradeXLS writes a new xlsx workbook at dst holding every sheet of the
// legacy workbook at src, with the named sheet replaced by ds.
func upgradeXLS(src, dst, sheet string, ds *dataframe.Dataset) error {
	names, all, err := readXLSWorkbook(src)
	if err != nil {
		return err
	}
	if !slices.Contains(names, sheet) {
		return unknownSheet(sheet)
	}

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for i, name := range names {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("naming sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}

		if name == sheet {
			if err := writeSheetRows(f, name, ds, 0); err != nil {
				return err
			}
			continue
		}
		for r, row := range all[name] {
			cells := make([]any, len(row))
			for c, v := range row {
				cells[c] = v
			}
			if err := setRow(f, name, r+1, cells); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(dst)
}

// writeSheetRows writes the header and typed rows of ds starting at A1.
// Rows are padded with blanks up to width so stale cells are cleared.
func writeSheetRows(f *excelize.File, sheet string, ds *dataframe.Dataset, width int) error {
	width = max(width, ds.Width())
	pad := func(cells []any) []any {
		for len(cells) < width {
			cells = append(cells, nil)
		}
		return cells
	}

	header := make([]any, 0, width)
	for _, name := range ds.Columns() {
		header = append(header, name)
	}
	if err := setRow(f, sheet, 1, pad(header)); err != nil {
		return err
	}

	for i := 0; i < ds.Len(); i++ {
		if err := setRow(f, sheet, i+2, pad(ds.Row(i))); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("writing row %d of %s: %w", row, sheet, err)
	}
	return nil
}
