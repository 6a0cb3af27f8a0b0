// Package app owns the job lifecycle: structured logging setup and a
// signal-aware context driving a single job's graceful cancellation.
package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"
)

// App owns the logger and the signal-driven run loop for one job
// invocation.
type App struct {
	log *slog.Logger
}

// Option configures App.
type Option func(*App)

// WithLogger sets the logger. If nil, slog.Default is used.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

// New creates an App with conservative defaults.
func New(opts ...Option) *App {
	a := &App{log: slog.Default()}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Logger returns the app logger.
func (a *App) Logger() *slog.Logger { return a.log }

// Run executes fn under a context canceled on SIGINT/SIGTERM, logging
// start/stop and elapsed time.
func (a *App) Run(fn func(ctx context.Context) int) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := a.log.With(
		slog.Int("pid", os.Getpid()),
		slog.String("go_version", runtime.Version()),
	)
	log.Info("job starting")
	start := time.Now()

	code := fn(ctx)

	if err := ctx.Err(); err != nil {
		log.Warn("job interrupted", slog.Duration("duration", time.Since(start)))
	} else {
		log.Info("job finished", slog.Int("exit_code", code), slog.Duration("duration", time.Since(start)))
	}
	return code
}
