package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LiqPull/internal/usecase"
	"LiqPull/pkg/config"
	xhttp "LiqPull/pkg/http"
	applogger "LiqPull/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	engine     *usecase.LiquidityEngine
	refresher  *usecase.Refresher
	handler    xhttp.Handler
	httpServer *xhttp.Server
	l          *applogger.Logger
	onShutdown []func()
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	engine *usecase.LiquidityEngine,
	refresher *usecase.Refresher,
	handler xhttp.Handler,
	l *applogger.Logger,
) *App {
	return &App{
		cfg:       cfg,
		engine:    engine,
		refresher: refresher,
		handler:   handler,
		l:         l,
	}
}

// OnShutdown registers fn to run after the HTTP server has stopped.
func (a *App) OnShutdown(fn func()) { a.onShutdown = append(a.onShutdown, fn) }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.l),
	}
	if len(a.cfg.Server.CORSOrigins) > 0 {
		opts = append(opts, xhttp.WithCORSOrigins(a.cfg.Server.CORSOrigins))
	}
	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	opts = append(opts, xhttp.WithMetricsPath(metricsPath))
	a.httpServer = xhttp.NewServer(a.handler, opts...)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	if a.refresher != nil && a.cfg.Scheduler.Enabled {
		if err := a.refresher.Start(a.cfg.Scheduler.Spec); err != nil {
			a.l.Error("refresher start error", applogger.Error(err))
			return err
		}
		// warm the cache so the first request is served from memory
		go a.refresher.RunNow(ctx)
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.refresher != nil {
		a.refresher.Stop(ctx)
	}

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	for _, fn := range a.onShutdown {
		fn()
	}

	// let in-flight snapshot deliveries finish before sinks are closed
	done := make(chan struct{})
	go func() {
		a.engine.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(a.cfg.Server.ShutdownTimeout):
		a.l.Warn("snapshot deliveries still running at shutdown")
	}

	a.l.Info("shutdown complete")
	return nil
}
