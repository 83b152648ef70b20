package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/sells-group/calcdata/internal/journal"
	"github.com/sells-group/calcdata/internal/model"
)

// outcome is what a pass reports back to the journal.
type outcome struct {
	Changes []model.Change
	Summary string
	Written bool
}

// openJournal connects to the configured journal. A journal that cannot be
// opened is replaced by journal.Nop so the pass itself still runs.
func openJournal(ctx context.Context) journal.Journal {
	j, err := journal.Open(ctx, cfg.Journal.Driver, cfg.Journal.DSN)
	if err != nil {
		zap.L().Warn("journal unavailable, run will not be recorded",
			zap.String("driver", cfg.Journal.Driver),
			zap.Error(err),
		)
		return journal.Nop{}
	}
	return j
}

// runPass executes fn as one journaled pass and prints its summary line to
// out. Journal failures are logged and never fail the pass.
func runPass(ctx context.Context, out io.Writer, pass model.Pass, dryRun bool, fn func() (outcome, error)) error {
	j := openJournal(ctx)
	defer j.Close() //nolint:errcheck

	run := &model.Run{Pass: pass, StorePath: cfg.Store.Path, DryRun: dryRun}
	started := true
	if err := j.StartRun(ctx, run); err != nil {
		zap.L().Warn("journal: start run failed", zap.String("pass", string(pass)), zap.Error(err))
		started = false
	}

	res, err := fn()
	if err != nil {
		res.Summary = fmt.Sprintf("%s: failed: %v", pass, err)
	}

	if started {
		if len(res.Changes) > 0 {
			if jerr := j.RecordChanges(ctx, run.ID, res.Changes); jerr != nil {
				zap.L().Warn("journal: record changes failed", zap.String("run_id", run.ID), zap.Error(jerr))
			}
		}
		run.Written = res.Written
		run.Changes = len(res.Changes)
		run.Summary = res.Summary
		if jerr := j.FinishRun(ctx, run); jerr != nil {
			zap.L().Warn("journal: finish run failed", zap.String("run_id", run.ID), zap.Error(jerr))
		}
	}

	if err != nil {
		return err
	}

	summary := res.Summary
	if dryRun {
		summary += " (dry run)"
	}
	_, _ = fmt.Fprintln(out, summary)
	zap.L().Info("pass complete",
		zap.String("pass", string(pass)),
		zap.String("run_id", run.ID),
		zap.Int("changes", len(res.Changes)),
		zap.Bool("written", res.Written),
	)
	return nil
}
