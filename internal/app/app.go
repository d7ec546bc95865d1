package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/five82/shopfront/internal/config"
	"github.com/five82/shopfront/internal/prefs"
	"github.com/five82/shopfront/internal/telemetry"
	"github.com/five82/shopfront/internal/ui"
)

const shutdownTimeout = 5 * time.Second

// Options configure the shopfront application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/shopfront/prefs.toml
	TickMillis int    // UI refresh in milliseconds; zero uses default
	Version    string
}

// Run boots the shopfront TUI until the user exits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) (err error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, logCloser, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.TraceFile, opts.Version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := shutdownTracing(sctx); serr != nil {
			log.WithError(serr).Warn("flush traces")
		}
	}()

	svc, err := Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, svc.Close()) }()

	log.WithField("backend", cfg.Backend).WithField("version", opts.Version).Info("shopfront starting")
	svc.Start()

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	var tick time.Duration
	if opts.TickMillis > 0 {
		tick = time.Duration(opts.TickMillis) * time.Millisecond
	}

	uiErr := ui.Run(ui.Options{
		Context:     ctx,
		Store:       svc.Loop.Store(),
		Commands:    svc.Commands,
		Pager:       svc.Pager,
		Identity:    svc.Identity,
		Checkout:    svc.Checkout,
		Docs:        svc.Docs,
		Totals:      svc.Totals,
		Activity:    svc.Activity,
		LiveCatalog: cfg.LiveCatalog,
		Log:         log.WithField("component", "ui"),
		Tick:        tick,
		Prefs:       userPrefs,
		PrefsPath:   opts.PrefsPath,
	})
	log.Info("shopfront stopped")
	return uiErr
}
