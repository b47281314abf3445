package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"treasury-engine/internal/httpapi"
	"treasury-engine/internal/metrics"
	"treasury-engine/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the job and prospect stores over a read-only HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		deps := httpapi.Deps{
			Jobs:      store.JobStore{Path: cfg.Data.Path(cfg.Data.JobsFile)},
			Prospects: store.ProspectStore{Path: cfg.Data.Path(cfg.Data.ProspectsFile)},
			Metrics:   metrics.New(),
		}
		deps.AllowedOrigins, _ = cmd.Flags().GetStringSlice("origin")
		if cfg.Data.Mirror {
			db, err := store.Open(ctx, cfg.Data.Path(cfg.Data.SQLiteFile))
			if err != nil {
				return err
			}
			defer db.Close()
			deps.DB = db
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           httpapi.NewRouter(deps),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("api listening", zap.String("addr", srv.Addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "serve")
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "shutdown")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringSlice("origin", nil, "allowed CORS origins (default localhost)")
	rootCmd.AddCommand(serveCmd)
}
