package main

import (
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score companies in the job store and rewrite the prospect list",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		p, closeFn, err := newPipeline(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		rep, err := p.Score(ctx)
		writeMetrics(p)
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("top")
		cmd.Printf("jobs=%d companies=%d prospects=%d\n", rep.Jobs, rep.Companies, len(rep.Prospects))
		for i, ps := range rep.Prospects {
			if i >= limit {
				break
			}
			cmd.Printf("%3d  %-40s %-22s %s\n", ps.Score, ps.Company, ps.Tier, ps.PrimarySignal)
		}
		return nil
	},
}

func init() {
	scoreCmd.Flags().Int("top", 10, "prospects to print")
	rootCmd.AddCommand(scoreCmd)
}
