package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/nutriforecast/internal/infra/config"
	"github.com/yanqian/nutriforecast/internal/infra/jobqueue"
)

// App runs the forecast API and its background job worker.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
	queue  jobqueue.HandlerQueue
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, queue jobqueue.HandlerQueue) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, queue: queue}
}

// Run serves until ctx is cancelled or the listener fails, then stops the
// server and drains queued analysis jobs.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("http server starting", "address", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down", "timeout", a.cfg.HTTP.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		err := a.server.Shutdown(shutdownCtx)
		if a.queue != nil {
			a.queue.Close()
		}
		a.logger.Info("shutdown complete")
		return err
	})

	return g.Wait()
}
