package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/cqeops/triage-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it,
// which keeps the postgres store unit-testable without a server.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgresWithPool wraps an existing pool, mock or real.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS bugs (
	id            BIGSERIAL PRIMARY KEY,
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
	last_updated  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS import_history (
	id           TEXT PRIMARY KEY,
	import_date  TEXT NOT NULL,
	total_bugs   INTEGER NOT NULL,
	new_bugs     INTEGER NOT NULL,
	updated_bugs INTEGER NOT NULL,
	report_path  TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_bugs_status ON bugs(status);
CREATE INDEX IF NOT EXISTS idx_bugs_assignment ON bugs(assignment);
CREATE INDEX IF NOT EXISTS idx_bugs_bug_age ON bugs(bug_age);
CREATE INDEX IF NOT EXISTS idx_import_history_date ON import_history(import_date);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// upsertBugSQL preserves status on conflict and reports whether the row was
// freshly inserted via the xmax system column.
const upsertBugSQL = `
INSERT INTO bugs (bug_id, assignment, priority, title, failure_mode,
	created_date, completed, sn_associated, product, import_date, comment_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (bug_id) DO UPDATE SET
	assignment = EXCLUDED.assignment,
	priority = EXCLUDED.priority,
	title = EXCLUDED.title,
	failure_mode = EXCLUDED.failure_mode,
	created_date = EXCLUDED.created_date,
	completed = EXCLUDED.completed,
	sn_associated = EXCLUDED.sn_associated,
	product = EXCLUDED.product,
	import_date = EXCLUDED.import_date,
	comment_count = EXCLUDED.comment_count,
	bug_age = $12,
	last_updated = now()
RETURNING (xmax = 0) AS inserted`

func (s *PostgresStore) ImportBatch(ctx context.Context, records []model.BugRecord, signals model.EngagementSignals) (int, int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, 0, eris.Wrap(err, "postgres: begin import")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	importDate := time.Now().UTC().Format("2006-01-02")
	var inserted, updated int

	for _, r := range records {
		ageIfExisting := model.AgeForExisting(signals[r.BugID])

		var wasInsert bool
		err := tx.QueryRow(ctx, upsertBugSQL,
			r.BugID, string(r.Assignment), r.Priority, r.Title, string(r.FailureMode),
			r.CreatedDate, r.Completed, r.SerialNumber, r.Product, importDate,
			signals[r.BugID], string(ageIfExisting),
		).Scan(&wasInsert)
		if err != nil {
			return 0, 0, eris.Wrapf(err, "postgres: upsert bug %s", r.BugID)
		}
		if wasInsert {
			inserted++
		} else {
			updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, eris.Wrap(err, "postgres: commit import")
	}
	return inserted, updated, nil
}

func (s *PostgresStore) RecordImport(ctx context.Context, run *model.ImportRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO import_history (id, import_date, total_bugs, new_bugs, updated_bugs, report_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.ImportDate, run.TotalBugs, run.NewBugs, run.UpdatedBugs, run.ReportPath, run.CreatedAt,
	)
	return eris.Wrap(err, "postgres: record import")
}

func (s *PostgresStore) ListImports(ctx context.Context, limit int) ([]model.ImportRun, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, import_date, total_bugs, new_bugs, updated_bugs, report_path, created_at
		FROM import_history ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list imports")
	}
	defer rows.Close()

	var runs []model.ImportRun
	for rows.Next() {
		var r model.ImportRun
		if err := rows.Scan(&r.ID, &r.ImportDate, &r.TotalBugs, &r.NewBugs, &r.UpdatedBugs, &r.ReportPath, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan import run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list imports iterate")
}

func (s *PostgresStore) GetBug(ctx context.Context, bugID string) (*model.PersistedBug, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, bug_id, assignment, priority, title, failure_mode,
			created_date, completed, sn_associated, product, status, import_date,
			bug_age, comment_count, last_updated
		FROM bugs WHERE bug_id = $1`, bugID)
	b, err := scanBug(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("bug not found: %s", bugID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get bug %s", bugID)
	}
	return b, nil
}

func (s *PostgresStore) ListBugs(ctx context.Context, filter BugFilter) ([]model.PersistedBug, error) {
	query := `
		SELECT id, bug_id, assignment, priority, title, failure_mode,
			created_date, completed, sn_associated, product, status, import_date,
			bug_age, comment_count, last_updated
		FROM bugs WHERE 1=1`
	var args []any

	if filter.Team != "" {
		args = append(args, string(filter.Team))
		query += ` AND assignment = $` + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.Age != "" {
		args = append(args, string(filter.Age))
		query += ` AND bug_age = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY priority ASC, last_updated DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list bugs")
	}
	defer rows.Close()

	var bugs []model.PersistedBug
	for rows.Next() {
		b, err := scanBug(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan bug")
		}
		bugs = append(bugs, *b)
	}
	return bugs, eris.Wrap(rows.Err(), "postgres: list bugs iterate")
}

func (s *PostgresStore) UpdateBugStatus(ctx context.Context, bugID string, status model.BugStatus) error {
	if !status.Valid() {
		return eris.Errorf("postgres: invalid status %q", status)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE bugs SET status = $1, last_updated = now() WHERE bug_id = $2`,
		string(status), bugID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update status for %s", bugID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("bug not found: %s", bugID)
	}
	return nil
}

func (s *PostgresStore) SetBugAge(ctx context.Context, bugID string, age model.BugAge) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE bugs SET bug_age = $1, last_updated = now() WHERE bug_id = $2`,
		string(age), bugID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update bug age for %s", bugID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("bug not found: %s", bugID)
	}
	return nil
}

