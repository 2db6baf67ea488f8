package app

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

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

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	initOrder []string
}

func newBootstrapper(app *Application) *bootstrapper {
	return &bootstrapper{
		app:       app,
		initOrder: make([]string, 0, 8),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initMetrics,
		b.initEventBus,
		b.initHistory,
		b.initStorage,
		b.initScript,
		b.initDispatcher,
		b.initTransport,
		b.initWatcher,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

// initConfig loads configuration and builds the logger from it.
func (b *bootstrapper) initConfig() error {
	opts := b.app.opts
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load(config.Options{
			Path:       opts.ConfigPath,
			Overrides:  opts.Overrides,
			DisableEnv: opts.DisableEnv,
		})
		if err != nil {
			return &InitError{Component: "config", Err: err}
		}
		cfg = loaded
	} else if err := cfg.Validate(); err != nil {
		return &InitError{Component: "config", Err: err}
	}

	b.app.cfg = cfg
	b.app.logger, b.app.level = NewLogger(cfg.Logging, opts.LogOutput)
	return nil
}

func (b *bootstrapper) initMetrics() error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return &InitError{Component: "metrics", Err: err}
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return &InitError{Component: "metrics", Err: err}
	}
	b.app.registry = reg
	b.app.metrics = metrics.New(reg)
	return nil
}

func (b *bootstrapper) initEventBus() error {
	b.app.bus = event.NewBus(event.WithLogger(b.app.logger.With("component", "event")))
	b.initOrder = append(b.initOrder, "eventBus")
	return nil
}

func (b *bootstrapper) initHistory() error {
	m := b.app.metrics
	h := history.New[codec.Snapshot](b.app.cfg.History.Capacity)
	h.SetEvictHook(func(stack history.Stack, _ codec.Snapshot) {
		m.HistoryEvicted(stack.String())
	})
	b.app.history = h
	m.SetHistoryDepth(0, 0)
	return nil
}

func (b *bootstrapper) initStorage() error {
	store, err := storage.New(b.app.cfg.Storage.Dir)
	if err != nil {
		return &InitError{Component: "storage", Err: err}
	}
	b.app.store = store
	return nil
}

func (b *bootstrapper) initScript() error {
	b.app.runner = newRunner(b.app.cfg.Script, b.app.logger)
	return nil
}

func newRunner(cfg config.ScriptConfig, logger *slog.Logger) *script.Runner {
	opts := []script.Option{
		script.WithTimeout(cfg.Timeout),
		script.WithLogger(logger.With("component", "script")),
	}
	if !cfg.Enabled {
		opts = append(opts, script.Disabled())
	}
	return script.NewRunner(opts...)
}

func (b *bootstrapper) initDispatcher() error {
	app := b.app
	d := dispatcher.New(
		dispatcher.DefaultConfig().WithMetrics(),
		dispatcher.WithLogger(app.logger.With("component", "dispatcher")),
		dispatcher.WithClassifier(classifyError),
	)
	d.RegisterPostHook(dispatcher.PostDispatchFunc(app.observeCommand))
	if err := app.registerHandlers(d); err != nil {
		return &InitError{Component: "dispatcher", Err: err}
	}
	app.dispatcher = d
	return nil
}

func (b *bootstrapper) initTransport() error {
	app := b.app
	app.hub = server.NewHub(app.logger, app.metrics, server.WithAllowedOrigins(app.cfg.Server.AllowedOrigins...))
	if _, err := app.hub.Attach(app.bus); err != nil {
		return &InitError{Component: "hub", Err: err}
	}
	b.initOrder = append(b.initOrder, "hub")

	cfg := app.cfg
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	app.server = server.New(server.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		MetricsPath:  metricsPath,
	}, app.dispatcher,
		server.WithLogger(app.logger),
		server.WithHub(app.hub),
		server.WithGatherer(app.registry),
	)
	return nil
}

// initWatcher watches the config file for live reload.
func (b *bootstrapper) initWatcher() error {
	app := b.app
	if app.opts.ConfigPath == "" || app.opts.Config != nil {
		return nil
	}
	w, err := watcher.New(watcher.WithLogger(app.logger.With("component", "watcher")))
	if err != nil {
		return &InitError{Component: "watcher", Err: err}
	}
	b.initOrder = append(b.initOrder, "watcher")
	app.watcher = w
	if err := w.Watch(app.opts.ConfigPath); err != nil {
		return &InitError{Component: "watcher", Err: err}
	}
	w.OnChange(app.onConfigChange)
	return nil
}

// cleanup releases components in reverse initialization order.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		switch b.initOrder[i] {
		case "watcher":
			_ = b.app.watcher.Stop()
			b.app.watcher = nil
		case "hub":
			b.app.hub.Close()
		case "eventBus":
			b.app.bus.Close()
		}
	}
}
