package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/calcdata/internal/dataset"
	"github.com/sells-group/calcdata/internal/model"
	"github.com/sells-group/calcdata/internal/reconcile"
	"github.com/sells-group/calcdata/internal/resolve"
	"github.com/sells-group/calcdata/internal/wiki"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair names and fill missing fields from the wiki corpus",
	Long:  "Resolves job, spec, skill and DNA names against the cached wiki, then fills prerequisites, level requirements, info and progression for every skill with a matching page.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		only, _ := cmd.Flags().GetString("only")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		scope, err := reconcile.ParseScope(only)
		if err != nil {
			return err
		}

		return runPass(ctx, cmd.OutOrStdout(), model.PassReconcile, dryRun, func() (outcome, error) {
			ds, err := dataset.Load(cfg.Store.Path)
			if err != nil {
				return outcome{}, err
			}
			idx, err := wiki.BuildIndex(ctx, cfg.Wiki.Dir, wiki.Options{
				Glob:    cfg.Wiki.Glob,
				Workers: cfg.Wiki.ParseWorkers,
			})
			if err != nil {
				return outcome{}, err
			}
			overrides, err := resolve.LoadOverrides(cfg.Resolve.OverridesPath)
			if err != nil {
				return outcome{}, err
			}

			out, res := reconcile.Run(ds, idx, resolve.NewResolver(idx, overrides), reconcile.Options{
				Only:           scope,
				RankCount:      cfg.Extract.RankCount,
				SkillThreshold: cfg.Resolve.SkillThreshold,
				JobThreshold:   cfg.Resolve.JobThreshold,
				Placeholder:    cfg.Cleanup.Placeholder,
			})
			zap.L().Info("reconcile: done",
				zap.Int("pages", idx.Len()),
				zap.Int("renamed", res.Renamed),
				zap.Int("enriched", res.Enriched),
			)

			o := outcome{Changes: res.Changes, Summary: res.Summary()}
			if dryRun || res.Count() == 0 {
				return o, nil
			}
			if err := dataset.Save(cfg.Store.Path, out); err != nil {
				return o, eris.Wrap(err, "reconcile: write store")
			}
			o.Written = true
			return o, nil
		})
	},
}

func init() {
	reconcileCmd.Flags().String("only", "", "restrict the pass to names or fields")
	reconcileCmd.Flags().Bool("dry-run", false, "report changes without writing the store")
	rootCmd.AddCommand(reconcileCmd)
}
