package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/booklens/internal/app"
	"github.com/lehigh-university-libraries/booklens/internal/config"
	"github.com/lehigh-university-libraries/booklens/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the BookLens HTTP API",
		Long: `Starts the BookLens API.

The server exposes the model gateway proxy (/api/openai), the lookup
pipeline (/api/resolve) and the per-user history and list endpoints.
Users are identified by the X-BookLens-User header.`,
		Example: `  # Start on the configured address (BOOKLENS_ADDR, default :8080)
  booklens serve

  # Persist the library in SQLite
  BOOKLENS_STORE=sqlite BOOKLENS_STORE_DSN=booklens.db booklens serve --addr :3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if addr != "" {
				cfg.Addr = addr
			}

			store, err := storage.Open(cmd.Context(), cfg.Store, cfg.StoreDSN)
			if err != nil {
				return err
			}
			defer store.Close()

			handler, err := app.NewHandler(cmd.Context(), cfg, store)
			if err != nil {
				return err
			}

			server := &http.Server{
				Addr:              cfg.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				slog.Info("BookLens API available", "addr", cfg.Addr, "provider", cfg.Provider, "model", cfg.ResolvedModel(), "store", cfg.Store)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Address to listen on (overrides BOOKLENS_ADDR)")

	return cmd
}
