package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/codehack/movierec/internal/config"
	"github.com/codehack/movierec/internal/handlers"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the recommendation API server",
		Long: `Starts the movierec JSON API on the specified port.

Routes:
  GET /api/movies?q=&limit=          search titles
  GET /api/movies/featured?n=        random movies from the table
  GET /api/movies/trending?n=        random movies with metadata
  GET /api/movies/{id}               movie details
  GET /api/recommendations?title=    recommendations by exact title
  GET /api/recommendations?id=       recommendations by movie id
  GET /healthcheck
  GET /metrics`,
		Example: `  # Start server on default port 8888
  movierec serve

  # Start server on custom port
  movierec serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, err := setup(flags)
			if err != nil {
				return err
			}

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           handlers.New(svc).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Movierec API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
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

	cmd.Flags().StringVarP(&port, "port", "p", config.DefaultPort, "Port to listen on")

	return cmd
}
