package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/suitability-cli/internal/api"
	"github.com/sells-group/suitability-cli/internal/store"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the recommendation HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Server.Port = port
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		paths := catalogPaths{}
		paths.Species, _ = cmd.Flags().GetString("species")
		paths.Params, _ = cmd.Flags().GetString("params")
		paths.Sheet, _ = cmd.Flags().GetString("sheet")

		rec, err := loadRecommender(ctx, paths)
		if err != nil {
			return err
		}

		var st store.Store
		if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           api.NewServer(rec, st, cfg.Server).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server",
			zap.Int("port", cfg.Server.Port),
			zap.Int("species", len(rec.Species())),
			zap.Bool("history", st != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	addCatalogFlags(serveCmd)
	serveCmd.Flags().Int("port", 0, "server port (default from config)")
	serveCmd.Flags().Bool("no-store", false, "serve without run history")
	rootCmd.AddCommand(serveCmd)
}
