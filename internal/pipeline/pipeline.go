package pipeline

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cqeops/triage-cli/internal/extract"
	"github.com/cqeops/triage-cli/internal/model"
)

// Summary counts what one processing pass produced.
type Summary struct {
	Total    int                `json:"total"`
	Excluded int                `json:"excluded"`
	PerTeam  map[model.Team]int `json:"per_team"`
}

// Result is the full output of one processing pass: every row in priority
// order with exclusion flagged, plus the per-team buckets.
type Result struct {
	Records []model.BugRecord               `json:"records"`
	Buckets map[model.Team][]model.BugRecord `json:"buckets"`
	Summary Summary                         `json:"summary"`
}

// Process runs the normalization and triage sequence over a raw extract
// table. Stage order matters: teams are assigned in encounter order after
// failure modes are known, and only then is anything sorted. Once the table
// is read, every stage is total; a row of blanks still comes out classified
// and assigned.
func Process(t *extract.Table, mapping ColumnMapping, qualifying string) (*Result, error) {
	if t == nil {
		return nil, eris.New("pipeline: nil extract table")
	}

	records := MapRows(t, mapping)

	for i := range records {
		records[i].BugID = CanonicalBugID(records[i].BugID)
		records[i].SerialNumber = CanonicalSerial(records[i].SerialNumber)
		records[i].FailureMode = ClassifyTitle(records[i].Title)
	}

	records = FillPriorities(records)
	records = MarkExcluded(records, qualifying)
	records = AssignTeams(records)

	buckets := Partition(records)
	SortByPriority(records)

	summary := Summary{
		Total:   len(records),
		PerTeam: make(map[model.Team]int, len(model.Teams)),
	}
	for _, r := range records {
		if r.Excluded {
			summary.Excluded++
		}
	}
	for _, team := range model.Teams {
		summary.PerTeam[team] = len(buckets[team])
	}

	zap.L().Info("pipeline: batch processed",
		zap.Int("total", summary.Total),
		zap.Int("excluded", summary.Excluded),
		zap.Int("gl", summary.PerTeam[model.TeamGL]),
		zap.Int("nt", summary.PerTeam[model.TeamNT]),
		zap.Int("pp", summary.PerTeam[model.TeamPP]),
	)

	return &Result{Records: records, Buckets: buckets, Summary: summary}, nil
}
