package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/calcdata/internal/dataset"
	"github.com/sells-group/calcdata/internal/model"
	"github.com/sells-group/calcdata/internal/skeleton"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Build the skeleton store from archived calculator pages",
	RunE: func(cmd *cobra.Command, _ []string) error {
		snapshots, _ := cmd.Flags().GetString("snapshots")
		force, _ := cmd.Flags().GetBool("force")

		return runPass(cmd.Context(), cmd.OutOrStdout(), model.PassExtract, false, func() (outcome, error) {
			if _, err := os.Stat(cfg.Store.Path); err == nil && !force {
				return outcome{}, eris.Errorf("extract: %s exists; use --force to overwrite", cfg.Store.Path)
			}

			ds, err := skeleton.Build(snapshots)
			if err != nil {
				return outcome{}, err
			}
			if err := dataset.Save(cfg.Store.Path, ds); err != nil {
				return outcome{}, eris.Wrap(err, "extract: write store")
			}

			var jobs, skills, dna int
			for _, js := range ds.Jobs {
				jobs += len(js)
			}
			for _, s := range ds.Skills {
				skills += len(s)
			}
			for _, d := range ds.DNA {
				dna += len(d)
			}
			return outcome{
				Summary: fmt.Sprintf("extract: wrote %d groups, %d jobs, %d skills, %d DNA entries to %s",
					len(ds.Groups), jobs, skills, dna, cfg.Store.Path),
				Written: true,
			}, nil
		})
	},
}

func init() {
	extractCmd.Flags().String("snapshots", "", "directory holding the archived calculator pages")
	_ = extractCmd.MarkFlagRequired("snapshots")
	extractCmd.Flags().Bool("force", false, "overwrite an existing store")
	rootCmd.AddCommand(extractCmd)
}
