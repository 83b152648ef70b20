package main

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/calcdata/internal/dataset"
	"github.com/sells-group/calcdata/internal/model"
	"github.com/sells-group/calcdata/internal/reconcile"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove placeholder DNA entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		verbose, _ := cmd.Flags().GetBool("verbose")
		out := cmd.OutOrStdout()

		return runPass(cmd.Context(), out, model.PassCleanup, dryRun, func() (outcome, error) {
			ds, err := dataset.Load(cfg.Store.Path)
			if err != nil {
				return outcome{}, err
			}

			cleaned, res := reconcile.Cleanup(ds, cfg.Cleanup.Placeholder)
			if verbose {
				for _, id := range sortedSpecs(res.Specs) {
					sc := res.Specs[id]
					_, _ = fmt.Fprintf(out, "spec %s: removed %d, kept %d\n", id, sc.Removed, sc.Kept)
				}
			}

			o := outcome{Changes: res.Changes, Summary: res.Summary()}
			if dryRun || res.Count() == 0 {
				return o, nil
			}
			if err := dataset.Save(cfg.Store.Path, cleaned); err != nil {
				return o, eris.Wrap(err, "cleanup: write store")
			}
			o.Written = true
			return o, nil
		})
	},
}

func init() {
	cleanupCmd.Flags().Bool("dry-run", false, "report removals without writing the store")
	cleanupCmd.Flags().BoolP("verbose", "v", false, "print per-spec counts")
	rootCmd.AddCommand(cleanupCmd)
}

func sortedSpecs(m map[string]reconcile.SpecCleanup) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
