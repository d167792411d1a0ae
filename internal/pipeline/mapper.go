// Package pipeline turns a raw CQE extract into a cleaned, classified,
// prioritized, team-partitioned record set.
package pipeline

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cqeops/triage-cli/internal/extract"
	"github.com/cqeops/triage-cli/internal/model"
)

// Canonical field keys the mapper can populate.
const (
	fieldBugID     = "bug_id"
	fieldPriority  = "priority"
	fieldTitle     = "title"
	fieldCreated   = "created_date"
	fieldCompleted = "completed"
	fieldSerial    = "serial_number"
	fieldProduct   = "product"
)

//go:embed mapping.yaml
var defaultMappingYAML []byte

// ColumnMapping maps raw source column names onto canonical field keys.
type ColumnMapping map[string]string

// DefaultMapping returns the built-in raw-extract column mapping.
func DefaultMapping() ColumnMapping {
	m, err := parseMapping(defaultMappingYAML)
	if err != nil {
		// The embedded table is validated by tests; a parse failure here is a
		// build defect, not a runtime condition.
		panic(err)
	}
	return m
}

// CanonicalMapping maps the canonical output headers back onto field keys,
// for re-ingesting a file this tool already structured.
func CanonicalMapping() ColumnMapping {
	return ColumnMapping{
		"Bug ID":        fieldBugID,
		"Priority":      fieldPriority,
		"Title":         fieldTitle,
		"Created Date":  fieldCreated,
		"COMPLETED":     fieldCompleted,
		"SN Associated": fieldSerial,
		"Product":       fieldProduct,
	}
}

// LoadMapping reads a column mapping override from a YAML file.
func LoadMapping(path string) (ColumnMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "mapper: read mapping %s", path)
	}
	return parseMapping(data)
}

func parseMapping(data []byte) (ColumnMapping, error) {
	var m ColumnMapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "mapper: parse mapping")
	}
	if len(m) == 0 {
		return nil, eris.New("mapper: mapping is empty")
	}
	return m, nil
}

// MapRows projects the raw table onto canonical BugRecords. Every canonical
// field is populated; source columns named in the mapping but absent from the
// extract default to empty and are logged once per column. Unknown source
// columns are dropped.
func MapRows(t *extract.Table, mapping ColumnMapping) []model.BugRecord {
	// Column index -> canonical field, from the header row.
	fieldAt := make(map[int]string, len(mapping))
	seen := make(map[string]bool, len(mapping))
	for i, name := range t.Header {
		if field, ok := mapping[name]; ok {
			fieldAt[i] = field
			seen[field] = true
		}
	}
	for raw, field := range mapping {
		if !seen[field] {
			zap.L().Warn("mapper: source column absent, defaulting to empty",
				zap.String("column", raw),
				zap.String("field", field),
			)
		}
	}

	records := make([]model.BugRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		var r model.BugRecord
		for i, value := range row {
			field, ok := fieldAt[i]
			if !ok {
				continue
			}
			switch field {
			case fieldBugID:
				r.BugID = value
			case fieldPriority:
				r.PriorityRaw = value
			case fieldTitle:
				r.Title = value
			case fieldCreated:
				r.CreatedDate = value
			case fieldCompleted:
				r.Completed = value
			case fieldSerial:
				r.SerialNumber = value
			case fieldProduct:
				r.Product = value
			}
		}
		records = append(records, r)
	}
	return records
}
