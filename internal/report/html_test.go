package report_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqeops/triage-cli/internal/report"
)

func TestHumanLabel(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"brand_new", "Brand New"},
		{"existing_one_comment", "Existing One Comment"},
		{"active", "Active"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, report.HumanLabel(tt.in))
	}
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, report.WriteHTML(path, sampleResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "Daily Bug Assignment Report")
	assert.Contains(t, html, "GL Team - 1 bugs")
	assert.Contains(t, html, "NT Team - 0 bugs")
	assert.Contains(t, html, "PP Team - 1 bugs")
	assert.Contains(t, html, "Excluded (non-qualifying product): 1")
	assert.Contains(t, html, "https://nvbugs/4100001")

	// Excluded rows never appear in a team section.
	assert.NotContains(t, html, "https://nvbugs/4100003")
}

func TestWriteHTMLTruncatesLongTitles(t *testing.T) {
	t.Parallel()

	res := sampleResult()
	long := strings.Repeat("x", 80)
	res.Buckets["GL"][0].Title = long

	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, report.WriteHTML(path, res))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.NotContains(t, string(data), long)
	assert.Contains(t, string(data), strings.Repeat("x", 50)+"...")
}
