package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"treasury-engine/internal/ingest"
)

var ingestOpts sourceOpts

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Collect postings and merge them into the job store",
	Long: `Runs every enabled source (board searches, alert mailbox, local files),
extracts and normalizes the postings and merges them into the canonical
job store. Re-ingesting the same postings leaves the store unchanged.

Examples:
  # Enabled sources from engine.yml
  ingest

  # Replay saved alert mails only
  ingest --no-web --no-email --file alerts/ --source LinkedIn`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		p, closeFn, err := newPipeline(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		sources, cleanup := buildSources(p, ingestOpts)
		defer cleanup()
		if len(sources) == 0 {
			zap.L().Warn("no sources enabled")
			return nil
		}

		timeout, _ := cmd.Flags().GetDuration("source-timeout")
		blocks, outcomes := ingest.Collect(ctx, sources, timeout)
		for _, o := range outcomes {
			if o.Err != nil {
				p.Metrics.SourceErrors.WithLabelValues(o.Source).Inc()
			}
		}

		rep, err := p.Ingest(ctx, blocks)
		writeMetrics(p)
		if err != nil {
			return err
		}
		cmd.Printf("blocks=%d records=%d added=%d replaced=%d total=%d\n",
			rep.Blocks, rep.Records, rep.Merge.Added, rep.Merge.Replaced, rep.Merge.Total)
		return nil
	},
}

func addSourceFlags(cmd *cobra.Command, o *sourceOpts) {
	f := cmd.Flags()
	f.StringSliceVar(&o.files, "file", nil, "saved .eml/.html/.txt files or directories to replay")
	f.StringVar(&o.source, "source", "LinkedIn", "source name stamped on replayed files")
	f.StringVar(&o.context, "context", "", "search context for replayed files (e.g. \"Treasury in Deutschland\")")
	f.BoolVar(&o.noEmail, "no-email", false, "skip the alert mailbox")
	f.BoolVar(&o.noWeb, "no-web", false, "skip board searches")
	f.Duration("source-timeout", 5*time.Minute, "per-source fetch timeout")
}

func init() {
	addSourceFlags(ingestCmd, &ingestOpts)
	rootCmd.AddCommand(ingestCmd)
}
