package app

import (
	"context"
	"slices"

	"github.com/dshills/easel/internal/config"
	"github.com/dshills/easel/internal/config/watcher"
	"github.com/dshills/easel/internal/event"
)

// onConfigChange reloads configuration after the watched file changes.
func (app *Application) onConfigChange(ev watcher.Event) {
	if ev.Op == watcher.OpRemove || ev.Op == watcher.OpRename {
		app.logger.Warn("config file removed, keeping current settings", "path", ev.Path)
		return
	}
	if err := app.Reload(); err != nil {
		app.logger.Error("config reload failed",
			"path", ev.Path,
			"error", NewComponentError("config", "reload", err),
		)
	}
}

// Reload reads the configuration sources again and applies the settings
// that can change at runtime.
func (app *Application) Reload() error {
	cfg, err := config.Load(config.Options{
		Path:       app.opts.ConfigPath,
		Overrides:  app.opts.Overrides,
		DisableEnv: app.opts.DisableEnv,
	})
	if err != nil {
		return err
	}
	app.ApplyConfig(cfg)
	return nil
}

// ApplyConfig applies the live-reloadable parts of cfg: history capacity,
// log level, event stream origins and script settings. Other changes are logged and take effect
// on restart. It returns the dotted paths of the applied settings.
func (app *Application) ApplyConfig(cfg *config.Config) []string {
	app.mu.Lock()
	old := app.cfg
	next := *old
	var applied []string

	if cfg.History.Capacity != old.History.Capacity {
		next.History.Capacity = cfg.History.Capacity
		applied = append(applied, "history.capacity")
	}
	if cfg.Logging.Level != old.Logging.Level {
		next.Logging.Level = cfg.Logging.Level
		applied = append(applied, "logging.level")
	}
	if !slices.Equal(cfg.Server.AllowedOrigins, old.Server.AllowedOrigins) {
		next.Server.AllowedOrigins = slices.Clone(cfg.Server.AllowedOrigins)
		applied = append(applied, "server.allowed_origins")
	}
	if cfg.Script != old.Script {
		next.Script = cfg.Script
		app.runner = newRunner(cfg.Script, app.logger)
		applied = append(applied, "script")
	}
	app.cfg = &next
	app.mu.Unlock()

	// The history has its own lock; resize outside ours.
	if slices.Contains(applied, "history.capacity") {
		app.history.SetCapacity(next.History.Capacity)
		st := app.history.State()
		app.metrics.SetHistoryDepth(st.UndoDepth, st.RedoDepth)
	}
	if slices.Contains(applied, "logging.level") {
		app.level.Set(ParseLevel(next.Logging.Level))
	}
	if slices.Contains(applied, "server.allowed_origins") {
		app.hub.SetAllowedOrigins(next.Server.AllowedOrigins)
	}

	for _, path := range restartOnly(old, cfg) {
		app.logger.Warn("config change requires restart", "setting", path)
	}

	app.logger.Info("config reloaded", "applied", applied)
	app.publish(context.Background(), event.TopicConfigReloaded, event.ConfigReloaded{
		Path:    app.opts.ConfigPath,
		Applied: applied,
	})
	return applied
}

// restartOnly lists changed sections that cannot be applied live.
func restartOnly(old, cfg *config.Config) []string {
	var paths []string
	if serverChanged(old.Server, cfg.Server) {
		paths = append(paths, "server")
	}
	if old.Storage != cfg.Storage {
		paths = append(paths, "storage")
	}
	if old.Metrics != cfg.Metrics {
		paths = append(paths, "metrics")
	}
	if old.Logging.Format != cfg.Logging.Format {
		paths = append(paths, "logging.format")
	}
	return paths
}

// serverChanged reports a change to server settings that need a restart,
// which is all of them except the allowed origins.
func serverChanged(a, b config.ServerConfig) bool {
	return a.Addr != b.Addr ||
		a.ReadTimeout != b.ReadTimeout ||
		a.WriteTimeout != b.WriteTimeout ||
		a.MaxBodyBytes != b.MaxBodyBytes ||
		a.Stdio != b.Stdio
}
