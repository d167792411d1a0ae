// Package store persists normalized bug state and import history between
// daily runs. It assumes a single writer; concurrent imports against the
// same database are not a supported scenario.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/cqeops/triage-cli/internal/model"
)

// BugFilter specifies criteria for listing persisted bugs.
type BugFilter struct {
	Team   model.Team      `json:"team,omitempty"`
	Status model.BugStatus `json:"status,omitempty"`
	Age    model.BugAge    `json:"age,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// Store is the persistence boundary for the triage pipeline and dashboard.
type Store interface {
	// ImportBatch merges a processed batch against persisted state, keyed by
	// bug id. New ids are inserted active/brand_new; existing ids have their
	// mutable fields overwritten while status is preserved and bug_age is
	// advanced from the engagement signals. The whole batch commits or none
	// of it does. Every matched row counts as updated, changed or not.
	ImportBatch(ctx context.Context, records []model.BugRecord, signals model.EngagementSignals) (inserted, updated int, err error)

	// Import history
	RecordImport(ctx context.Context, run *model.ImportRun) error
	ListImports(ctx context.Context, limit int) ([]model.ImportRun, error)

	// Dashboard
	GetBug(ctx context.Context, bugID string) (*model.PersistedBug, error)
	ListBugs(ctx context.Context, filter BugFilter) ([]model.PersistedBug, error)
	UpdateBugStatus(ctx context.Context, bugID string, status model.BugStatus) error
	SetBugAge(ctx context.Context, bugID string, age model.BugAge) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New opens the configured store backend.
func New(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		if dsn == "" {
			dsn = "triage.db"
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", driver)
	}
}
