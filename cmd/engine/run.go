package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"treasury-engine/internal/scheduler"
)

var runOpts sourceOpts

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest then score, once or on an interval",
	Long: `Runs ingest and score back to back. With --every the pair repeats
until interrupted. A tick that arrives while a run is still going is
skipped, so runs never overlap.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		p, closeFn, err := newPipeline(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		sources, cleanup := buildSources(p, runOpts)
		defer cleanup()

		timeout, _ := cmd.Flags().GetDuration("source-timeout")
		once := func(ctx context.Context) error {
			rep, err := p.Run(ctx, sources, timeout)
			writeMetrics(p)
			if err != nil {
				return err
			}
			zap.L().Info("run summary",
				zap.String("run", rep.RunID),
				zap.Int("added", rep.Ingest.Merge.Added),
				zap.Int("prospects", len(rep.Score.Prospects)))
			return nil
		}

		every, _ := cmd.Flags().GetDuration("every")
		if every <= 0 {
			return once(ctx)
		}
		scheduler.Every(ctx, every, "pipeline", once)
		return nil
	},
}

func init() {
	addSourceFlags(runCmd, &runOpts)
	runCmd.Flags().Duration("every", 0, "repeat interval (e.g. 6h); 0 runs once")
	rootCmd.AddCommand(runCmd)
}
