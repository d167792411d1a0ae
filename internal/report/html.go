// Package report renders a processed batch for review: an HTML summary and
// the four-sheet output workbook.
package report

import (
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cqeops/triage-cli/internal/model"
	"github.com/cqeops/triage-cli/internal/pipeline"
)

const maxTitleLen = 50

var titleCaser = cases.Title(language.English)

// HumanLabel turns a snake_case enum value into a display label,
// e.g. "existing_one_comment" -> "Existing One Comment".
func HumanLabel(v string) string {
	return titleCaser.String(strings.ReplaceAll(v, "_", " "))
}

var reportTmpl = template.Must(template.New("report").Parse(`<html>
<head>
<style>
    body { font-family: Arial, sans-serif; }
    h1 { color: #333; }
    h2 { color: #666; margin-top: 30px; }
    table { border-collapse: collapse; margin-bottom: 30px; width: 100%; }
    th { background-color: #4CAF50; color: white; padding: 12px; text-align: left; }
    td { border: 1px solid #ddd; padding: 8px; }
    tr:nth-child(even) { background-color: #f2f2f2; }
    .summary { background-color: #e7f3ff; padding: 15px; margin-bottom: 20px; border-radius: 5px; }
</style>
</head>
<body>
<h1>Daily Bug Assignment Report - {{.Generated}}</h1>
<div class="summary">
    <strong>Summary:</strong><br>
{{- range .Sections}}
    &nbsp;&nbsp;&nbsp;&nbsp;{{.Team}}: {{len .Rows}} bugs<br>
{{- end}}
    &nbsp;&nbsp;&nbsp;&nbsp;<strong>Total: {{.Distributed}} bugs</strong><br>
    &nbsp;&nbsp;&nbsp;&nbsp;Excluded (non-qualifying product): {{.Excluded}}
</div>
{{- range .Sections}}
<h2>{{.Team}} Team - {{len .Rows}} bugs</h2>
<table>
<tr>{{range $.Columns}}<th>{{.}}</th>{{end}}</tr>
{{- range .Rows}}
<tr>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</table>
{{- end}}
</body>
</html>
`))

type teamSection struct {
	Team model.Team
	Rows []reportRow
}

type reportRow struct {
	cells []string
}

// Cells truncates the title column for display, matching the mailed report.
func (r reportRow) Cells() []string { return r.cells }

type reportData struct {
	Generated   string
	Distributed int
	Excluded    int
	Columns     []string
	Sections    []teamSection
}

// WriteHTML renders the per-team report to path.
func WriteHTML(path string, res *pipeline.Result) error {
	data := reportData{
		Generated: time.Now().Format("2006-01-02 15:04"),
		Excluded:  res.Summary.Excluded,
		Columns:   model.Columns,
	}

	for _, team := range model.Teams {
		section := teamSection{Team: team}
		for _, r := range res.Buckets[team] {
			cells := r.Cells()
			if title := cells[3]; len(title) > maxTitleLen {
				cells[3] = title[:maxTitleLen] + "..."
			}
			section.Rows = append(section.Rows, reportRow{cells: cells})
		}
		data.Distributed += len(section.Rows)
		data.Sections = append(data.Sections, section)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	if err := reportTmpl.Execute(f, data); err != nil {
		return eris.Wrap(err, "report: render html")
	}
	return nil
}
