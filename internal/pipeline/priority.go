package pipeline

import (
	"math"
	"strconv"
	"strings"

	"github.com/cqeops/triage-cli/internal/model"
)

// FillPriorities assigns a concrete priority to every record, in row order.
// Numeric source values pass through; each blank or non-numeric value gets
// one more than the last assigned value, with a blank first row seeding at 1.
// Runs of blanks climb +1 per row even when that overruns or undershoots the
// next known value; the established sheets were built with that behavior and
// downstream ordering depends on it.
func FillPriorities(records []model.BugRecord) []model.BugRecord {
	last := 0
	for i := range records {
		if v, ok := parsePriority(records[i].PriorityRaw); ok {
			records[i].Priority = v
			last = v
			continue
		}
		last++
		records[i].Priority = last
	}
	return records
}

// parsePriority accepts integer and float renderings of a priority value.
func parsePriority(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}
