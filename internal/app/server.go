package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpDelivery "github.com/prebuiltcheck/backend/internal/delivery/http"
)

const shutdownTimeout = 15 * time.Second

// Handler returns the HTTP API for the assembled service
func (a *App) Handler() http.Handler {
	handler := httpDelivery.NewHandler(a.Service, a.Config.Server.RequestTimeout, a.log)
	return httpDelivery.SetupRouter(a.Config, handler, a.log)
}

// Serve listens on the configured port until ctx is cancelled, then drains in-flight requests
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", a.Config.Server.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
