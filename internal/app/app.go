// Package app provides top-level application lifecycle management. It wires
// the stores, caches, blob storage, platform clients, services, and pipelines
// together and runs whichever operating mode the configuration selects.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/liqlens/liqlens/internal/config"
)

// App is the root application object. It owns the configuration, logger,
// positional CLI arguments, and a list of cleanup functions that are called
// in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	args    []string
	closers []func()
}

// New creates a new App. args are the positional CLI arguments left after
// flag parsing; analyze and portfolio interpret the first one as a market
// reference or wallet address.
func New(cfg *config.Config, logger *slog.Logger, args []string) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
		args:   args,
	}
}

// Run wires the dependencies for the configured mode, runs that mode, and
// blocks until it finishes or the context is cancelled. Cleanup functions
// registered during wiring run on Close.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	switch strings.ToLower(a.cfg.Mode) {
	case "analyze":
		return a.AnalyzeMode(ctx, deps)
	case "scan":
		return a.ScanMode(ctx, deps)
	case "portfolio":
		return a.PortfolioMode(ctx, deps)
	case "monitor":
		return a.MonitorMode(ctx, deps)
	case "record":
		return a.RecordMode(ctx, deps)
	case "full":
		return a.FullMode(ctx, deps)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
