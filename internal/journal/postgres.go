package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/calcdata/internal/model"
)

// Pool is the subset of pgxpool.Pool the journal uses. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// PostgresJournal implements Journal using pgxpool.
type PostgresJournal struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresJournal with a small connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresJournal, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresJournal{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	pass        TEXT NOT NULL,
	store_path  TEXT NOT NULL,
	dry_run     BOOLEAN NOT NULL DEFAULT false,
	written     BOOLEAN NOT NULL DEFAULT false,
	changes     INTEGER NOT NULL DEFAULT 0,
	summary     TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS changes (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	seq        INTEGER NOT NULL,
	kind       TEXT NOT NULL,
	parent_id  TEXT NOT NULL,
	entity_id  TEXT NOT NULL,
	field      TEXT NOT NULL,
	old        TEXT NOT NULL DEFAULT '',
	new        TEXT NOT NULL DEFAULT '',
	method     TEXT NOT NULL DEFAULT '',
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	source     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_pass ON runs(pass);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_changes_entity ON changes(kind, entity_id);
`

func (s *PostgresJournal) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresJournal) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresJournal) StartRun(ctx context.Context, run *model.Run) error {
	prepareRun(run)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, pass, store_path, dry_run, started_at) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, string(run.Pass), run.StorePath, run.DryRun, run.StartedAt,
	)
	return eris.Wrap(err, "postgres: insert run")
}

var changeColumns = []string{
	"run_id", "seq", "kind", "parent_id", "entity_id", "field",
	"old", "new", "method", "confidence", "source",
}

// RecordChanges bulk-inserts changes with the COPY protocol.
func (s *PostgresJournal) RecordChanges(ctx context.Context, runID string, changes []model.Change) error {
	if len(changes) == 0 {
		return nil
	}
	var base int
	if err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM changes WHERE run_id = $1`, runID,
	).Scan(&base); err != nil {
		return eris.Wrapf(err, "postgres: next change seq %s", runID)
	}

	rows := make([][]any, len(changes))
	for i, c := range changes {
		rows[i] = []any{
			runID, base + i + 1, string(c.Kind), c.ParentID, c.EntityID, c.Field,
			c.Old, c.New, c.Method, c.Confidence, c.Source,
		}
	}
	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{"changes"}, changeColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return eris.Wrapf(err, "postgres: COPY changes for run %s", runID)
	}
	if int(n) != len(rows) {
		return eris.Errorf("postgres: copied %d of %d changes for run %s", n, len(rows), runID)
	}
	return nil
}

func (s *PostgresJournal) FinishRun(ctx context.Context, run *model.Run) error {
	now := stampFinished(run)
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET written = $1, changes = $2, summary = $3, finished_at = $4 WHERE id = $5`,
		run.Written, run.Changes, run.Summary, now, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", run.ID)
	}
	return nil
}

func (s *PostgresJournal) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE id = $1`, runID)
	r, err := scanPgRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresJournal) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Pass != "" {
		query += fmt.Sprintf(` AND pass = $%d`, argIdx)
		args = append(args, string(filter.Pass))
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY started_at DESC LIMIT $%d`, argIdx)
	args = append(args, filter.limit())

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresJournal) ListChanges(ctx context.Context, runID string) ([]model.Change, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT kind, parent_id, entity_id, field, old, new, method, confidence, source
		 FROM changes WHERE run_id = $1 ORDER BY seq`, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list changes %s", runID)
	}
	defer rows.Close()

	var out []model.Change
	for rows.Next() {
		c, err := scanChange(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan change")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list changes iterate")
}

func scanPgRun(row scannable) (*model.Run, error) {
	var r model.Run
	var pass string
	if err := row.Scan(&r.ID, &pass, &r.StorePath, &r.DryRun, &r.Written, &r.Changes,
		&r.Summary, &r.StartedAt, &r.FinishedAt); err != nil {
		return nil, err
	}
	r.Pass = model.Pass(pass)
	return &r, nil
}
