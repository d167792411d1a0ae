package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqeops/triage-cli/internal/model"
	"github.com/cqeops/triage-cli/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "triage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleBatch() []model.BugRecord {
	return []model.BugRecord{
		{
			BugID: "https://nvbugs/4100001", Priority: 1, Title: "power brake asserted",
			FailureMode: model.FailurePower, Product: "HGX H100 SXM5", Assignment: model.TeamPP,
		},
		{
			BugID: "https://nvbugs/4100002", Priority: 2, Title: "XID 79 on customer node",
			FailureMode: model.FailureCustomerXID, Product: "HGX H100 SXM5", Assignment: model.TeamGL,
		},
		{
			BugID: "https://nvbugs/4100003", Priority: 3, Title: "row remap pending",
			FailureMode: model.FailureHBM, Product: "HGX H100 SXM5", Assignment: model.TeamNT,
		},
	}
}

func TestSQLiteImportBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	inserted, updated, err := s.ImportBatch(ctx, sampleBatch(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)
	assert.Equal(t, 0, updated)

	// Re-importing the same batch matches every row, so every row counts as
	// updated whether or not anything changed.
	inserted, updated, err = s.ImportBatch(ctx, sampleBatch(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.Equal(t, 3, updated)
}

func TestSQLiteImportPreservesStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	_, _, err := s.ImportBatch(ctx, sampleBatch(), nil)
	require.NoError(t, err)
	require.NoError(t, s.UpdateBugStatus(ctx, "https://nvbugs/4100001", model.StatusInProgress))

	batch := sampleBatch()
	batch[0].Priority = 9
	_, _, err = s.ImportBatch(ctx, batch, nil)
	require.NoError(t, err)

	b, err := s.GetBug(ctx, "https://nvbugs/4100001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, b.Status)
	assert.Equal(t, 9, b.Priority)
}

func TestSQLiteImportAdvancesBugAge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	_, _, err := s.ImportBatch(ctx, sampleBatch(), nil)
	require.NoError(t, err)

	b, err := s.GetBug(ctx, "https://nvbugs/4100001")
	require.NoError(t, err)
	assert.Equal(t, model.AgeBrandNew, b.BugAge)

	signals := model.EngagementSignals{
		"https://nvbugs/4100001": 0,
		"https://nvbugs/4100002": 1,
		"https://nvbugs/4100003": 4,
	}
	_, _, err = s.ImportBatch(ctx, sampleBatch(), signals)
	require.NoError(t, err)

	for bugID, want := range map[string]model.BugAge{
		"https://nvbugs/4100001": model.AgeUntouched,
		"https://nvbugs/4100002": model.AgeOneComment,
		"https://nvbugs/4100003": model.AgeMultipleComments,
	} {
		b, err := s.GetBug(ctx, bugID)
		require.NoError(t, err)
		assert.Equal(t, want, b.BugAge, bugID)
	}
}

func TestSQLiteGetBugNotFound(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	_, err := s.GetBug(context.Background(), "https://nvbugs/999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteListBugs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	_, _, err := s.ImportBatch(ctx, sampleBatch(), nil)
	require.NoError(t, err)
	require.NoError(t, s.UpdateBugStatus(ctx, "https://nvbugs/4100002", model.StatusCompleted))

	t.Run("all in priority order", func(t *testing.T) {
		bugs, err := s.ListBugs(ctx, store.BugFilter{})
		require.NoError(t, err)
		require.Len(t, bugs, 3)
		assert.Equal(t, "https://nvbugs/4100001", bugs[0].BugID)
		assert.Equal(t, "https://nvbugs/4100003", bugs[2].BugID)
	})

	t.Run("by team", func(t *testing.T) {
		bugs, err := s.ListBugs(ctx, store.BugFilter{Team: model.TeamNT})
		require.NoError(t, err)
		require.Len(t, bugs, 1)
		assert.Equal(t, "https://nvbugs/4100003", bugs[0].BugID)
	})

	t.Run("by status", func(t *testing.T) {
		bugs, err := s.ListBugs(ctx, store.BugFilter{Status: model.StatusActive})
		require.NoError(t, err)
		assert.Len(t, bugs, 2)
	})

	t.Run("limit", func(t *testing.T) {
		bugs, err := s.ListBugs(ctx, store.BugFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, bugs, 1)
	})
}

func TestSQLiteUpdateBugStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	_, _, err := s.ImportBatch(ctx, sampleBatch(), nil)
	require.NoError(t, err)

	require.NoError(t, s.UpdateBugStatus(ctx, "https://nvbugs/4100001", model.StatusDeprioritized))
	b, err := s.GetBug(ctx, "https://nvbugs/4100001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeprioritized, b.Status)

	assert.Error(t, s.UpdateBugStatus(ctx, "https://nvbugs/999", model.StatusActive))
	assert.Error(t, s.UpdateBugStatus(ctx, "https://nvbugs/4100001", model.BugStatus("bogus")))
}

func TestSQLiteSetBugAge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	_, _, err := s.ImportBatch(ctx, sampleBatch(), nil)
	require.NoError(t, err)

	require.NoError(t, s.SetBugAge(ctx, "https://nvbugs/4100002", model.AgeMultipleComments))
	b, err := s.GetBug(ctx, "https://nvbugs/4100002")
	require.NoError(t, err)
	assert.Equal(t, model.AgeMultipleComments, b.BugAge)

	assert.Error(t, s.SetBugAge(ctx, "https://nvbugs/999", model.AgeUntouched))
}

func TestSQLiteImportHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	older := &model.ImportRun{
		ImportDate: "2026-08-30", TotalBugs: 10, NewBugs: 10,
		CreatedAt: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
	}
	newer := &model.ImportRun{
		ImportDate: "2026-08-31", TotalBugs: 12, NewBugs: 2, UpdatedBugs: 10,
		ReportPath: "bug_report_20260831.html",
		CreatedAt:  time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.RecordImport(ctx, older))
	require.NoError(t, s.RecordImport(ctx, newer))
	assert.NotEmpty(t, older.ID)

	runs, err := s.ListImports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "2026-08-31", runs[0].ImportDate)
	assert.Equal(t, 2, runs[0].NewBugs)
	assert.Equal(t, 10, runs[0].UpdatedBugs)

	runs, err = s.ListImports(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
