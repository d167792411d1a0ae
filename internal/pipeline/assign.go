package pipeline

import "github.com/cqeops/triage-cli/internal/model"

// assignState carries the GL/NT alternation across one batch. The state is
// threaded explicitly so a processing pass stays re-entrant; nothing here is
// package-global.
type assignState struct {
	nextNT bool // false: next non-PP row goes to GL
}

// next resolves the team for one row. Power and Thermal failures always go
// to PP and do not consume a GL/NT turn.
func (s *assignState) next(mode model.FailureMode) model.Team {
	if mode == model.FailurePower || mode == model.FailureThermal {
		return model.TeamPP
	}
	if s.nextNT {
		s.nextNT = false
		return model.TeamNT
	}
	s.nextNT = true
	return model.TeamGL
}

// AssignTeams resolves every record's team in encounter order. The result is
// deterministic for a fixed row order: re-running on identical input yields
// identical assignments. Records must not have been re-sorted yet; the
// alternation depends on the order rows arrived, not on priority.
func AssignTeams(records []model.BugRecord) []model.BugRecord {
	var state assignState
	for i := range records {
		records[i].Assignment = state.next(records[i].FailureMode)
	}
	return records
}
