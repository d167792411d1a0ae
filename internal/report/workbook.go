package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/cqeops/triage-cli/internal/model"
	"github.com/cqeops/triage-cli/internal/pipeline"
)

// Sheet names in the output workbook. Daily New carries every row; the team
// sheets carry only distributed rows.
var sheetNames = []string{"Daily New", "GL", "NT", "PP"}

// WriteWorkbook writes the four-sheet output workbook in canonical column
// order. Excluded rows appear only on the Daily New sheet, blacked out so
// reviewers can see what was withheld from distribution.
func WriteWorkbook(path string, res *pipeline.Result) error {
	file := xlsx.NewFile()

	headerStyle := xlsx.NewStyle()
	headerStyle.Font.Bold = true
	headerStyle.Fill = *xlsx.NewFill("solid", "FFCCCCCC", "FFCCCCCC")
	headerStyle.ApplyFont = true
	headerStyle.ApplyFill = true

	excludedStyle := xlsx.NewStyle()
	excludedStyle.Fill = *xlsx.NewFill("solid", "FF000000", "FF000000")
	excludedStyle.Font.Color = "FFFFFFFF"
	excludedStyle.Font.Bold = true
	excludedStyle.ApplyFont = true
	excludedStyle.ApplyFill = true

	daily, err := file.AddSheet(sheetNames[0])
	if err != nil {
		return eris.Wrap(err, "workbook: add daily sheet")
	}
	writeHeader(daily, headerStyle)
	for _, r := range res.Records {
		row := daily.AddRow()
		writeRecord(row, r)
		if r.Excluded {
			for _, cell := range row.Cells {
				cell.SetStyle(excludedStyle)
			}
		}
	}

	for _, team := range model.Teams {
		sheet, err := file.AddSheet(string(team))
		if err != nil {
			return eris.Wrapf(err, "workbook: add %s sheet", team)
		}
		writeHeader(sheet, headerStyle)
		for _, r := range res.Buckets[team] {
			writeRecord(sheet.AddRow(), r)
		}
	}

	return eris.Wrapf(file.Save(path), "workbook: save %s", path)
}

// WriteTemplate writes a blank workbook carrying the required sheets and
// headers, for seeding a fresh tracking file.
func WriteTemplate(path string) error {
	file := xlsx.NewFile()

	headerStyle := xlsx.NewStyle()
	headerStyle.Font.Bold = true
	headerStyle.Fill = *xlsx.NewFill("solid", "FFCCCCCC", "FFCCCCCC")
	headerStyle.ApplyFont = true
	headerStyle.ApplyFill = true

	for _, name := range sheetNames {
		sheet, err := file.AddSheet(name)
		if err != nil {
			return eris.Wrapf(err, "workbook: add %s sheet", name)
		}
		writeHeader(sheet, headerStyle)
	}
	return eris.Wrapf(file.Save(path), "workbook: save template %s", path)
}

func writeHeader(sheet *xlsx.Sheet, style *xlsx.Style) {
	row := sheet.AddRow()
	for _, name := range model.Columns {
		cell := row.AddCell()
		cell.Value = name
		cell.SetStyle(style)
	}
}

func writeRecord(row *xlsx.Row, r model.BugRecord) {
	for i, value := range r.Cells() {
		cell := row.AddCell()
		// Serial numbers stay text; a numeric cell would round-trip large
		// serials back into scientific notation.
		if model.Columns[i] == "SN Associated" {
			cell.SetString(value)
			continue
		}
		cell.Value = value
	}
}
