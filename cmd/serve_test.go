package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqeops/triage-cli/internal/model"
	"github.com/cqeops/triage-cli/internal/store"
)

func newRouterWithData(t *testing.T) http.Handler {
	t.Helper()

	ctx := context.Background()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "triage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(ctx))

	_, _, err = s.ImportBatch(ctx, []model.BugRecord{
		{
			BugID: "https://nvbugs/4100001", Priority: 1, Title: "power brake asserted",
			FailureMode: model.FailurePower, Product: "HGX H100 SXM5", Assignment: model.TeamPP,
		},
		{
			BugID: "https://nvbugs/4100002", Priority: 2, Title: "XID 79",
			FailureMode: model.FailureCustomerXID, Product: "HGX H100 SXM5", Assignment: model.TeamGL,
		},
	}, nil)
	require.NoError(t, err)

	return dashboardRouter(s)
}

func TestDashboardRouter(t *testing.T) {
	router := newRouterWithData(t)

	get := func(t *testing.T, path string) *httptest.ResponseRecorder {
		t.Helper()
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	t.Run("health", func(t *testing.T) {
		rec := get(t, "/health")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("list bugs", func(t *testing.T) {
		rec := get(t, "/bugs")
		require.Equal(t, http.StatusOK, rec.Code)
		var bugs []model.PersistedBug
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bugs))
		assert.Len(t, bugs, 2)
	})

	t.Run("team bucket", func(t *testing.T) {
		rec := get(t, "/buckets/PP")
		require.Equal(t, http.StatusOK, rec.Code)
		var bugs []model.PersistedBug
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bugs))
		require.Len(t, bugs, 1)
		assert.Equal(t, "https://nvbugs/4100001", bugs[0].BugID)
	})

	t.Run("unknown team", func(t *testing.T) {
		rec := get(t, "/buckets/QA")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("status transition", func(t *testing.T) {
		body := `{"bug_id":"https://nvbugs/4100002","status":"in_progress"}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bugs/status", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = get(t, "/bugs?status=in_progress")
		require.Equal(t, http.StatusOK, rec.Code)
		var bugs []model.PersistedBug
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bugs))
		require.Len(t, bugs, 1)
		assert.Equal(t, "https://nvbugs/4100002", bugs[0].BugID)
	})

	t.Run("bad status", func(t *testing.T) {
		body := `{"bug_id":"https://nvbugs/4100002","status":"bogus"}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bugs/status", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
