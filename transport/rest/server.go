package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"
)

const shutdownTimeout = 5 * time.Second

type Routes struct {
	Socket http.Handler
}

// NewHandler - mounts /ping and /ws behind a CORS policy for allowedOrigin.
func NewHandler(logger *slog.Logger, allowedOrigin string, routes Routes) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ping", NewPingHandler(logger))
	mux.Handle("/ws", routes.Socket)

	return cors.New(cors.Options{
		AllowedOrigins: []string{allowedOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(mux)
}

// Start - serves handler on port until ctx is canceled, then shuts down gracefully.
func Start(ctx context.Context, logger *slog.Logger, port string, handler http.Handler) error {
	log := logger.With("component", "http")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info("HTTP server stopped")

	return nil
}
