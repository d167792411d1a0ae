package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/cqeops/triage-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS bugs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	bug_id        TEXT NOT NULL UNIQUE,
	assignment    TEXT NOT NULL,
	priority      INTEGER NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	failure_mode  TEXT NOT NULL DEFAULT '',
	created_date  TEXT NOT NULL DEFAULT '',
	completed     TEXT NOT NULL DEFAULT '',
	sn_associated TEXT NOT NULL DEFAULT '',
	product       TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'active',
	import_date   TEXT NOT NULL DEFAULT '',
	bug_age       TEXT NOT NULL DEFAULT 'brand_new',
	comment_count INTEGER NOT NULL DEFAULT 0,
	last_updated  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS import_history (
	id           TEXT PRIMARY KEY,
	import_date  TEXT NOT NULL,
	total_bugs   INTEGER NOT NULL,
	new_bugs     INTEGER NOT NULL,
	updated_bugs INTEGER NOT NULL,
	report_path  TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_bugs_status ON bugs(status);
CREATE INDEX IF NOT EXISTS idx_bugs_assignment ON bugs(assignment);
CREATE INDEX IF NOT EXISTS idx_bugs_bug_age ON bugs(bug_age);
CREATE INDEX IF NOT EXISTS idx_import_history_date ON import_history(import_date);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ImportBatch merges one processed batch inside a single transaction. Rows
// are reconciled in batch order, so duplicate bug ids within a batch resolve
// to the last row seen.
func (s *SQLiteStore) ImportBatch(ctx context.Context, records []model.BugRecord, signals model.EngagementSignals) (int, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, eris.Wrap(err, "sqlite: begin import")
	}
	defer tx.Rollback() //nolint:errcheck

	importDate := time.Now().UTC().Format("2006-01-02")
	var inserted, updated int

	for _, r := range records {
		var existingID int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM bugs WHERE bug_id = ?`, r.BugID).Scan(&existingID)
		switch {
		case err == sql.ErrNoRows:
			_, err = tx.ExecContext(ctx, `
				INSERT INTO bugs (bug_id, assignment, priority, title, failure_mode,
					created_date, completed, sn_associated, product, import_date, comment_count)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.BugID, string(r.Assignment), r.Priority, r.Title, string(r.FailureMode),
				r.CreatedDate, r.Completed, r.SerialNumber, r.Product, importDate, signals[r.BugID],
			)
			if err != nil {
				return 0, 0, eris.Wrapf(err, "sqlite: insert bug %s", r.BugID)
			}
			inserted++
		case err != nil:
			return 0, 0, eris.Wrapf(err, "sqlite: lookup bug %s", r.BugID)
		default:
			age := model.AgeForExisting(signals[r.BugID])
			_, err = tx.ExecContext(ctx, `
				UPDATE bugs SET
					assignment = ?, priority = ?, title = ?, failure_mode = ?,
					created_date = ?, completed = ?, sn_associated = ?, product = ?,
					import_date = ?, comment_count = ?, bug_age = ?,
					last_updated = datetime('now')
				WHERE bug_id = ?`,
				string(r.Assignment), r.Priority, r.Title, string(r.FailureMode),
				r.CreatedDate, r.Completed, r.SerialNumber, r.Product,
				importDate, signals[r.BugID], string(age), r.BugID,
			)
			if err != nil {
				return 0, 0, eris.Wrapf(err, "sqlite: update bug %s", r.BugID)
			}
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, eris.Wrap(err, "sqlite: commit import")
	}
	return inserted, updated, nil
}

func (s *SQLiteStore) RecordImport(ctx context.Context, run *model.ImportRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_history (id, import_date, total_bugs, new_bugs, updated_bugs, report_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ImportDate, run.TotalBugs, run.NewBugs, run.UpdatedBugs, run.ReportPath, run.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: record import")
}

func (s *SQLiteStore) ListImports(ctx context.Context, limit int) ([]model.ImportRun, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, import_date, total_bugs, new_bugs, updated_bugs, report_path, created_at
		FROM import_history ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list imports")
	}
	defer rows.Close()

	var runs []model.ImportRun
	for rows.Next() {
		var r model.ImportRun
		if err := rows.Scan(&r.ID, &r.ImportDate, &r.TotalBugs, &r.NewBugs, &r.UpdatedBugs, &r.ReportPath, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan import run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list imports iterate")
}

const bugColumns = `id, bug_id, assignment, priority, title, failure_mode,
	created_date, completed, sn_associated, product, status, import_date,
	bug_age, comment_count, last_updated`

func (s *SQLiteStore) GetBug(ctx context.Context, bugID string) (*model.PersistedBug, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bugColumns+` FROM bugs WHERE bug_id = ?`, bugID)
	b, err := scanBug(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("bug not found: %s", bugID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get bug %s", bugID)
	}
	return b, nil
}

func (s *SQLiteStore) ListBugs(ctx context.Context, filter BugFilter) ([]model.PersistedBug, error) {
	query := `SELECT ` + bugColumns + ` FROM bugs WHERE 1=1`
	var args []any

	if filter.Team != "" {
		query += ` AND assignment = ?`
		args = append(args, string(filter.Team))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Age != "" {
		query += ` AND bug_age = ?`
		args = append(args, string(filter.Age))
	}
	query += ` ORDER BY priority ASC, last_updated DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list bugs")
	}
	defer rows.Close()

	var bugs []model.PersistedBug
	for rows.Next() {
		b, err := scanBug(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan bug")
		}
		bugs = append(bugs, *b)
	}
	return bugs, eris.Wrap(rows.Err(), "sqlite: list bugs iterate")
}

func (s *SQLiteStore) UpdateBugStatus(ctx context.Context, bugID string, status model.BugStatus) error {
	if !status.Valid() {
		return eris.Errorf("sqlite: invalid status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE bugs SET status = ?, last_updated = datetime('now') WHERE bug_id = ?`,
		string(status), bugID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update status for %s", bugID)
	}
	return checkRowsAffected(res, "bug", bugID)
}

func (s *SQLiteStore) SetBugAge(ctx context.Context, bugID string, age model.BugAge) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bugs SET bug_age = ?, last_updated = datetime('now') WHERE bug_id = ?`,
		string(age), bugID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update bug age for %s", bugID)
	}
	return checkRowsAffected(res, "bug", bugID)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanBug(row scannable) (*model.PersistedBug, error) {
	var b model.PersistedBug
	var assignment, failureMode, status, age string
	err := row.Scan(
		&b.ID, &b.BugID, &assignment, &b.Priority, &b.Title, &failureMode,
		&b.CreatedDate, &b.Completed, &b.SerialNumber, &b.Product, &status,
		&b.ImportDate, &age, &b.CommentCount, &b.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	b.Assignment = model.Team(assignment)
	b.FailureMode = model.FailureMode(failureMode)
	b.Status = model.BugStatus(status)
	b.BugAge = model.BugAge(age)
	return &b, nil
}
