// Package journal records every pass invocation and the changes it applied.
package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/calcdata/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Pass  model.Pass `json:"pass,omitempty"`
	Limit int        `json:"limit,omitempty"`
}

const defaultListLimit = 20

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Journal is the audit trail for reconciliation runs.
type Journal interface {
	// StartRun persists a new run. An empty ID and zero StartedAt are filled.
	StartRun(ctx context.Context, run *model.Run) error
	// RecordChanges appends changes to a run, keeping their order.
	RecordChanges(ctx context.Context, runID string, changes []model.Change) error
	// FinishRun stores the outcome fields of run and stamps FinishedAt.
	FinishRun(ctx context.Context, run *model.Run) error

	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	ListChanges(ctx context.Context, runID string) ([]model.Change, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// Open connects to the journal backend named by driver and applies its
// schema.
func Open(ctx context.Context, driver, dsn string) (Journal, error) {
	var (
		j   Journal
		err error
	)
	switch driver {
	case DriverSQLite, "":
		j, err = NewSQLite(dsn)
	case DriverPostgres:
		j, err = NewPostgres(ctx, dsn)
	case DriverNone:
		return Nop{}, nil
	default:
		return nil, eris.Errorf("journal: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := j.Migrate(ctx); err != nil {
		j.Close() //nolint:errcheck
		return nil, err
	}
	return j, nil
}

func prepareRun(run *model.Run) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
}

func stampFinished(run *model.Run) time.Time {
	now := time.Now().UTC()
	run.FinishedAt = &now
	return now
}

// Nop discards everything. It backs the "none" driver.
type Nop struct{}

func (Nop) StartRun(_ context.Context, run *model.Run) error {
	prepareRun(run)
	return nil
}

func (Nop) RecordChanges(context.Context, string, []model.Change) error { return nil }

func (Nop) FinishRun(_ context.Context, run *model.Run) error {
	stampFinished(run)
	return nil
}

func (Nop) GetRun(_ context.Context, runID string) (*model.Run, error) {
	return nil, eris.Errorf("run not found: %s", runID)
}

func (Nop) ListRuns(context.Context, RunFilter) ([]model.Run, error) { return nil, nil }

func (Nop) ListChanges(context.Context, string) ([]model.Change, error) { return nil, nil }

func (Nop) Migrate(context.Context) error { return nil }

func (Nop) Close() error { return nil }
