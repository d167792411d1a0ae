// Package extract reads raw CQE spreadsheet extracts from disk or an FTP drop.
package extract

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// Table is the first data sheet of an extract in row-major form.
type Table struct {
	Header []string
	Rows   [][]string
}

// ErrNotTabular marks input that cannot be read as tabular data at all.
// It aborts the whole run; missing columns do not.
var ErrNotTabular = eris.New("extract: input is not tabular data")

// requiredSheets are the tabs a file produced by this tool always carries.
var requiredSheets = []string{"Daily New", "GL", "NT", "PP"}

// rawIndicators are sheet names only the upstream CQE export uses. Their
// presence forces raw handling even when our own tabs exist.
var rawIndicators = []string{"From External CSP", "Closed cases", "Pivot by TAT", "StatusLocation"}

// ReadXLSX reads the first sheet of an XLSX file, returning the header row
// and all data rows as strings.
func ReadXLSX(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(ErrNotTabular, "open xlsx %s: %v", path, err)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Wrapf(ErrNotTabular, "xlsx %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	zap.L().Info("reading extract", zap.String("path", path), zap.String("sheet", sheet.Name))
	return sheetToTable(sheet), nil
}

// IsRawExtract reports whether the workbook is an upstream CQE export rather
// than a file this tool already structured. Unreadable files are treated as
// raw so the caller surfaces the real parse error.
func IsRawExtract(path string) bool {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return true
	}

	for name := range f.Sheet {
		for _, ind := range rawIndicators {
			if name == ind {
				return true
			}
		}
	}
	for _, required := range requiredSheets {
		if _, ok := f.Sheet[required]; !ok {
			return true
		}
	}
	return false
}

func sheetToTable(sheet *xlsx.Sheet) *Table {
	t := &Table{}
	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if i == 0 {
			t.Header = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}
