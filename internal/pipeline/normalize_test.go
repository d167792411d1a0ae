package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cqeops/triage-cli/internal/pipeline"
)

func TestCanonicalBugID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare number", "4123456", "https://nvbugs/4123456"},
		{"already canonical", "https://nvbugs/4123456", "https://nvbugs/4123456"},
		{"whitespace trimmed", "  4123456  ", "https://nvbugs/4123456"},
		{"blank", "", pipeline.MissingBugID},
		{"whitespace only", "   ", pipeline.MissingBugID},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, pipeline.CanonicalBugID(tt.in))
		})
	}
}

func TestCanonicalBugIDIdempotent(t *testing.T) {
	t.Parallel()

	once := pipeline.CanonicalBugID("5009876")
	assert.Equal(t, once, pipeline.CanonicalBugID(once))
}

func TestCanonicalSerial(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain digits", "1652923001234", "1652923001234"},
		{"scientific notation", "1.652923001234e+12", "1652923001234"},
		{"trailing decimal zero", "1652923001234.0", "1652923001234"},
		{"zero", "0", ""},
		{"zero float", "0.0", ""},
		{"blank", "", ""},
		{"non numeric", "n/a", ""},
		{"whitespace", "  1234567890  ", "1234567890"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, pipeline.CanonicalSerial(tt.in))
		})
	}
}
