package pipeline

import (
	"sort"
	"strings"

	"github.com/cqeops/triage-cli/internal/model"
)

// DefaultQualifyingProduct is the substring a product must carry for its row
// to be distributed to a team.
const DefaultQualifyingProduct = "SXM5"

// MarkExcluded flags rows whose product is blank or does not mention the
// qualifying substring. Excluded rows stay in the full output, highlighted,
// but never reach a team bucket.
func MarkExcluded(records []model.BugRecord, qualifying string) []model.BugRecord {
	if qualifying == "" {
		qualifying = DefaultQualifyingProduct
	}
	for i := range records {
		product := strings.TrimSpace(records[i].Product)
		records[i].Excluded = product == "" || !strings.Contains(product, qualifying)
	}
	return records
}

// Partition buckets the non-excluded records per team, each bucket sorted by
// priority ascending with first-seen order preserved on ties.
func Partition(records []model.BugRecord) map[model.Team][]model.BugRecord {
	buckets := make(map[model.Team][]model.BugRecord, len(model.Teams))
	for _, team := range model.Teams {
		buckets[team] = []model.BugRecord{}
	}
	for _, r := range records {
		if r.Excluded {
			continue
		}
		buckets[r.Assignment] = append(buckets[r.Assignment], r)
	}
	for _, team := range model.Teams {
		SortByPriority(buckets[team])
	}
	return buckets
}

// SortByPriority orders records by priority ascending, stable on ties.
func SortByPriority(records []model.BugRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Priority < records[j].Priority
	})
}
