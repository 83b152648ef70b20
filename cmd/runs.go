package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/calcdata/internal/journal"
	"github.com/sells-group/calcdata/internal/model"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect pass history",
	Long:  "Commands for listing, viewing, and summarizing journaled passes.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journaled passes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		j, err := journal.Open(ctx, cfg.Journal.Driver, cfg.Journal.DSN)
		if err != nil {
			return err
		}
		defer j.Close() //nolint:errcheck

		pass, _ := cmd.Flags().GetString("pass")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := j.ListRuns(ctx, journal.RunFilter{Pass: model.Pass(pass), Limit: limit})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

// runDetail is the JSON document printed by runs show.
type runDetail struct {
	*model.Run
	ChangeLog []model.Change `json:"change_log"`
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a pass and the changes it applied",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		j, err := journal.Open(ctx, cfg.Journal.Driver, cfg.Journal.DSN)
		if err != nil {
			return err
		}
		defer j.Close() //nolint:errcheck

		run, err := j.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		changes, err := j.ListChanges(ctx, run.ID)
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(runDetail{Run: run, ChangeLog: changes})
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate pass statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		j, err := journal.Open(ctx, cfg.Journal.Driver, cfg.Journal.DSN)
		if err != nil {
			return err
		}
		defer j.Close() //nolint:errcheck

		since, _ := cmd.Flags().GetDuration("since")
		runs, err := j.ListRuns(ctx, journal.RunFilter{Limit: 10000})
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		var cutoff time.Time
		if since > 0 {
			cutoff = time.Now().Add(-since)
		}
		formatRunStats(cmd.OutOrStdout(), computeRunStats(runs, cutoff))
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("pass", "", "filter by pass (reconcile, cleanup, extract)")
	runsListCmd.Flags().Int("limit", 20, "max number of runs to display")

	runsStatsCmd.Flags().Duration("since", 7*24*time.Hour, "time window for stats (e.g. 24h, 168h)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// runStats holds aggregate statistics computed from a set of runs.
type runStats struct {
	Total      int
	ByPass     map[model.Pass]int
	DryRuns    int
	Written    int
	Unfinished int
	Changes    int
	AvgDurSecs float64
}

// computeRunStats aggregates runs started at or after cutoff.
func computeRunStats(runs []model.Run, cutoff time.Time) runStats {
	s := runStats{ByPass: map[model.Pass]int{}}

	var totalDur time.Duration
	var durCount int

	for _, r := range runs {
		if r.StartedAt.Before(cutoff) {
			continue
		}
		s.Total++
		s.ByPass[r.Pass]++
		s.Changes += r.Changes
		if r.DryRun {
			s.DryRuns++
		}
		if r.Written {
			s.Written++
		}
		if r.FinishedAt == nil {
			s.Unfinished++
			continue
		}
		totalDur += r.FinishedAt.Sub(r.StartedAt)
		durCount++
	}

	if durCount > 0 {
		s.AvgDurSecs = totalDur.Seconds() / float64(durCount)
	}
	return s
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPASS\tCHANGES\tWRITTEN\tSTARTED\tDURATION\tSUMMARY")
	_, _ = fmt.Fprintln(w, "--\t----\t-------\t-------\t-------\t--------\t-------")

	for _, r := range runs {
		dur := "-"
		if r.FinishedAt != nil {
			dur = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}

		written := "no"
		switch {
		case r.DryRun:
			written = "dry"
		case r.Written:
			written = "yes"
		}

		summary := r.Summary
		if len(summary) > 60 {
			summary = summary[:57] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Pass,
			r.Changes,
			written,
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
			summary,
		)
	}
	_ = w.Flush()
}

// formatRunStats writes aggregate stats to w.
func formatRunStats(out io.Writer, s runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	for _, p := range []model.Pass{model.PassExtract, model.PassReconcile, model.PassCleanup} {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", p, s.ByPass[p])
	}
	_, _ = fmt.Fprintf(w, "Dry runs:\t%d\n", s.DryRuns)
	_, _ = fmt.Fprintf(w, "Written:\t%d\n", s.Written)
	_, _ = fmt.Fprintf(w, "Unfinished:\t%d\n", s.Unfinished)
	_, _ = fmt.Fprintf(w, "Changes:\t%d\n", s.Changes)
	if s.AvgDurSecs > 0 {
		_, _ = fmt.Fprintf(w, "Avg duration:\t%.1fs\n", s.AvgDurSecs)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
