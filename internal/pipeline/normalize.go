package pipeline

import (
	"strconv"
	"strings"
)

// BugURLPrefix is the URI prefix every canonical bug id carries.
const BugURLPrefix = "https://nvbugs/"

// MissingBugID is stored when the extract supplies no identifier. Rows that
// share it collide on the business key and merge update-in-place, matching
// the established sheets.
const MissingBugID = "nvbug not provided for this bug."

// CanonicalBugID prefixes bare bug numbers with the nvbugs URL. Already
// canonical ids pass through unchanged, so the transform is idempotent.
func CanonicalBugID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" {
		return MissingBugID
	}
	if strings.HasPrefix(id, BugURLPrefix) {
		return id
	}
	return BugURLPrefix + id
}

// CanonicalSerial renders a serial number as an exact decimal digit string.
// Spreadsheet tools corrupt large serials into scientific notation; parsing
// and re-rendering recovers the digits. Zero, blank, and non-numeric values
// become empty.
func CanonicalSerial(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	// Integer digits pass through exactly, beyond float64 precision.
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n == 0 {
			return ""
		}
		return strconv.FormatInt(n, 10)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', 0, 64)
}
