// Package app provides the main application structure and coordination
// for the easel backend. It wires the history store, codec, renderer,
// storage and script runner into the command dispatcher, and serves the
// dispatcher over HTTP or stdio.
package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/easel/internal/codec"
	"github.com/dshills/easel/internal/config"
	"github.com/dshills/easel/internal/config/watcher"
	"github.com/dshills/easel/internal/dispatcher"
	"github.com/dshills/easel/internal/event"
	"github.com/dshills/easel/internal/history"
	"github.com/dshills/easel/internal/metrics"
	"github.com/dshills/easel/internal/script"
	"github.com/dshills/easel/internal/server"
	"github.com/dshills/easel/internal/storage"
)

// Application is the central coordinator for all easel components.
// There is one history per Application; it is shared by every transport.
type Application struct {
	// mu guards cfg and runner, which change on config reload.
	mu     sync.RWMutex
	cfg    *config.Config
	runner *script.Runner

	logger *slog.Logger
	level  *slog.LevelVar

	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	bus        *event.Bus
	history    *history.History[codec.Snapshot]
	store      *storage.Store
	dispatcher *dispatcher.Dispatcher
	hub        *server.Hub
	server     *server.Server
	watcher    *watcher.Watcher

	running      atomic.Bool
	stopped      atomic.Bool
	shutdownOnce sync.Once

	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. When set, the file is watched
	// and reloaded while the application runs.
	ConfigPath string

	// Config is used as-is instead of loading configuration. Mainly for
	// tests and embedding.
	Config *config.Config

	// Overrides are command-line values keyed by dotted config path.
	Overrides map[string]any

	// DisableEnv skips EASEL_* environment variables.
	DisableEnv bool

	// LogOutput receives log records. Defaults to os.Stderr.
	LogOutput io.Writer

	// Stdin and Stdout carry the stdio transport. Default to the process
	// streams.
	Stdin  io.Reader
	Stdout io.Writer
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}
	if err := newBootstrapper(app).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Run serves commands until ctx is canceled, or until stdin is exhausted
// in stdio mode.
func (app *Application) Run(ctx context.Context) error {
	if app.stopped.Load() {
		return ErrShutdown
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if app.watcher != nil {
		app.watcher.Start()
	}

	cfg := app.Config()
	app.logger.Info("starting",
		"stdio", cfg.Server.Stdio,
		"addr", cfg.Server.Addr,
		"storage", app.store.Root(),
		"capacity", app.history.Capacity(),
	)

	if cfg.Server.Stdio {
		in, out := app.opts.Stdin, app.opts.Stdout
		if in == nil {
			in = os.Stdin
		}
		if out == nil {
			out = os.Stdout
		}
		return server.ServeStdio(ctx, app.dispatcher, in, out, int(cfg.Server.MaxBodyBytes), app.logger)
	}
	return app.server.ListenAndServe(ctx)
}

// Shutdown stops background components. It is safe to call more than once.
func (app *Application) Shutdown() {
	app.shutdownOnce.Do(func() {
		app.stopped.Store(true)
		if app.watcher != nil {
			if err := app.watcher.Stop(); err != nil {
				app.logger.Warn("stopping config watcher", "error", NewComponentError("watcher", "stop", err))
			}
		}
		app.hub.Close()
		app.bus.Close()
		app.logger.Info("shut down")
	})
}

// IsRunning returns true while Run is serving.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Config returns the active configuration. It must not be modified.
func (app *Application) Config() *config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.cfg
}

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger {
	return app.logger
}

// History returns the undo/redo store.
func (app *Application) History() *history.History[codec.Snapshot] {
	return app.history
}

// Store returns the image store.
func (app *Application) Store() *storage.Store {
	return app.store
}

// EventBus returns the application event bus.
func (app *Application) EventBus() *event.Bus {
	return app.bus
}

// Dispatcher returns the command dispatcher.
func (app *Application) Dispatcher() *dispatcher.Dispatcher {
	return app.dispatcher
}

// Server returns the HTTP transport.
func (app *Application) Server() *server.Server {
	return app.server
}

// Hub returns the websocket event hub.
func (app *Application) Hub() *server.Hub {
	return app.hub
}

// Metrics returns the Prometheus collectors.
func (app *Application) Metrics() *metrics.Metrics {
	return app.metrics
}

// Registry returns the Prometheus registry served on the metrics path.
func (app *Application) Registry() *prometheus.Registry {
	return app.registry
}

func (app *Application) scriptRunner() *script.Runner {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.runner
}
