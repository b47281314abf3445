package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"treasury-engine/internal/config"
)

var (
	cfg     *config.Config
	cfgPath string
)

var rootCmd = &cobra.Command{
	Use:   "treasury-engine",
	Short: "Treasury job-posting pipeline and lead scoring",
	Long: `Collects treasury job postings from board searches and alert emails,
canonicalizes and deduplicates them into a CSV job store, and scores the
hiring companies into a prospect list.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ./engine.yml)")
}

func main() {
	// config errors surface before the configured logger exists
	zap.ReplaceGlobals(zap.Must(zap.NewProduction()))

	if err := rootCmd.Execute(); err != nil {
		zap.L().Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}
