package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqeops/triage-cli/internal/extract"
	"github.com/cqeops/triage-cli/internal/model"
	"github.com/cqeops/triage-cli/internal/pipeline"
)

func TestProcessNilTable(t *testing.T) {
	t.Parallel()

	_, err := pipeline.Process(nil, pipeline.DefaultMapping(), "")
	require.Error(t, err)
}

func TestProcessEmptyTable(t *testing.T) {
	t.Parallel()

	res, err := pipeline.Process(&extract.Table{
		Header: []string{"FA NVbug Number"},
	}, pipeline.DefaultMapping(), "")
	require.NoError(t, err)
	assert.Zero(t, res.Summary.Total)
	for _, team := range model.Teams {
		assert.Empty(t, res.Buckets[team])
	}
}

// Exercises one full daily batch: canonicalization, priority gap-fill, keyword
// classification, the GL/NT rotation with PP routing, product exclusion, and
// the final priority ordering.
func TestProcessDailyBatch(t *testing.T) {
	t.Parallel()

	table := &extract.Table{
		Header: []string{
			"FA NVbug Number", "Priority", "Customer Reported Failure",
			"SXM SN for SXM RMA", "Product", "Status",
		},
		Rows: [][]string{
			{"4100001", "1", "power brake asserted", "1652923000001", "HGX H100 SXM5", ""},
			{"4100002", "", "XID 79 on customer node", "1.652923000002e+12", "HGX H100 SXM5", ""},
			{"", "5", "row remap pending", "0", "HGX H100 SXM5", "closed"},
			{"4100004", "", "OVERT shutdown", "1652923000004", "HGX H100 PCIe", ""},
			{"4100005", "", "no repro yet", "", "HGX H100 SXM5", ""},
		},
	}

	res, err := pipeline.Process(table, pipeline.DefaultMapping(), "")
	require.NoError(t, err)
	require.Len(t, res.Records, 5)

	assert.Equal(t, 5, res.Summary.Total)
	assert.Equal(t, 1, res.Summary.Excluded)

	byID := make(map[string]model.BugRecord, len(res.Records))
	for _, r := range res.Records {
		byID[r.BugID] = r
	}

	// Canonicalization.
	first := byID["https://nvbugs/4100001"]
	assert.Equal(t, "1652923000001", first.SerialNumber)
	missing := byID[pipeline.MissingBugID]
	assert.Equal(t, "", missing.SerialNumber)
	second := byID["https://nvbugs/4100002"]
	assert.Equal(t, "1652923000002", second.SerialNumber)

	// Priority gap-fill climbs from the last assigned value.
	assert.Equal(t, 1, first.Priority)
	assert.Equal(t, 2, second.Priority)
	assert.Equal(t, 5, missing.Priority)
	assert.Equal(t, 6, byID["https://nvbugs/4100004"].Priority)
	assert.Equal(t, 7, byID["https://nvbugs/4100005"].Priority)

	// Classification and routing: Power and Thermal go to PP without consuming
	// a GL/NT turn, everything else alternates starting at GL.
	assert.Equal(t, model.FailurePower, first.FailureMode)
	assert.Equal(t, model.TeamPP, first.Assignment)
	assert.Equal(t, model.FailureCustomerXID, second.FailureMode)
	assert.Equal(t, model.TeamGL, second.Assignment)
	assert.Equal(t, model.FailureHBM, missing.FailureMode)
	assert.Equal(t, model.TeamNT, missing.Assignment)
	assert.Equal(t, model.FailureThermal, byID["https://nvbugs/4100004"].FailureMode)
	assert.Equal(t, model.TeamPP, byID["https://nvbugs/4100004"].Assignment)
	assert.Equal(t, model.TeamGL, byID["https://nvbugs/4100005"].Assignment)

	// The non-SXM5 row is excluded from every bucket but kept in the record set.
	assert.True(t, byID["https://nvbugs/4100004"].Excluded)
	require.Len(t, res.Buckets[model.TeamPP], 1)
	assert.Equal(t, "https://nvbugs/4100001", res.Buckets[model.TeamPP][0].BugID)
	assert.Len(t, res.Buckets[model.TeamGL], 2)
	assert.Len(t, res.Buckets[model.TeamNT], 1)

	// Records come back in priority order.
	for i := 1; i < len(res.Records); i++ {
		assert.LessOrEqual(t, res.Records[i-1].Priority, res.Records[i].Priority)
	}
}
