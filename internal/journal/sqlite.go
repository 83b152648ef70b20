package journal

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/calcdata/internal/model"
)

// SQLiteJournal implements Journal using modernc.org/sqlite.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteJournal{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	pass        TEXT NOT NULL,
	store_path  TEXT NOT NULL,
	dry_run     INTEGER NOT NULL DEFAULT 0,
	written     INTEGER NOT NULL DEFAULT 0,
	changes     INTEGER NOT NULL DEFAULT 0,
	summary     TEXT NOT NULL DEFAULT '',
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
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
	confidence REAL NOT NULL DEFAULT 0,
	source     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_pass ON runs(pass);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_changes_entity ON changes(kind, entity_id);
`

func (s *SQLiteJournal) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteJournal) Close() error {
	return s.db.Close()
}

func (s *SQLiteJournal) StartRun(ctx context.Context, run *model.Run) error {
	prepareRun(run)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, pass, store_path, dry_run, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, string(run.Pass), run.StorePath, run.DryRun, run.StartedAt,
	)
	return eris.Wrap(err, "sqlite: insert run")
}

func (s *SQLiteJournal) RecordChanges(ctx context.Context, runID string, changes []model.Change) error {
	if len(changes) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin changes")
	}
	defer tx.Rollback() //nolint:errcheck

	var base int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM changes WHERE run_id = ?`, runID,
	).Scan(&base); err != nil {
		return eris.Wrapf(err, "sqlite: next change seq %s", runID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO changes (run_id, seq, kind, parent_id, entity_id, field, old, new, method, confidence, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare change insert")
	}
	defer stmt.Close()

	for i, c := range changes {
		if _, err := stmt.ExecContext(ctx,
			runID, base+i+1, string(c.Kind), c.ParentID, c.EntityID, c.Field,
			c.Old, c.New, c.Method, c.Confidence, c.Source,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert change for run %s", runID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit changes")
}

func (s *SQLiteJournal) FinishRun(ctx context.Context, run *model.Run) error {
	now := stampFinished(run)
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET written = ?, changes = ?, summary = ?, finished_at = ? WHERE id = ?`,
		run.Written, run.Changes, run.Summary, now, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", run.ID)
	}
	return checkRowsAffected(res, "run", run.ID)
}

const runColumns = `id, pass, store_path, dry_run, written, changes, summary, started_at, finished_at`

func (s *SQLiteJournal) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return r, nil
}

func (s *SQLiteJournal) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Pass != "" {
		query += ` AND pass = ?`
		args = append(args, string(filter.Pass))
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteJournal) ListChanges(ctx context.Context, runID string) ([]model.Change, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, parent_id, entity_id, field, old, new, method, confidence, source
		 FROM changes WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list changes %s", runID)
	}
	defer rows.Close()

	var out []model.Change
	for rows.Next() {
		c, err := scanChange(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan change")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list changes iterate")
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

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var pass string
	var finished sql.NullTime
	if err := row.Scan(&r.ID, &pass, &r.StorePath, &r.DryRun, &r.Written, &r.Changes,
		&r.Summary, &r.StartedAt, &finished); err != nil {
		return nil, err
	}
	r.Pass = model.Pass(pass)
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return &r, nil
}

func scanChange(row scannable) (model.Change, error) {
	var c model.Change
	var kind string
	err := row.Scan(&kind, &c.ParentID, &c.EntityID, &c.Field, &c.Old, &c.New,
		&c.Method, &c.Confidence, &c.Source)
	c.Kind = model.EntityKind(kind)
	return c, err
}
