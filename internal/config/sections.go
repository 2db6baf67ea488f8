package config

import "time"

// ServerConfig controls the command transports.
type ServerConfig struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`

	// ReadTimeout and WriteTimeout bound a single HTTP request.
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxBodyBytes limits the size of a command request body.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// Stdio serves commands over stdin/stdout instead of HTTP.
	Stdio bool `yaml:"stdio"`

	// AllowedOrigins lists browser origins, e.g. "http://localhost:1420",
	// that may open the event stream in addition to the server's own
	// origin. "*" allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// HistoryConfig controls the undo/redo store.
type HistoryConfig struct {
	// Capacity is the maximum number of snapshots per stack.
	Capacity int `yaml:"capacity"`
}

// StorageConfig controls where images are saved.
type StorageConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ScriptConfig controls Lua drawing scripts.
type ScriptConfig struct {
	Enabled bool `yaml:"enabled"`

	// Timeout bounds a single script run.
	Timeout time.Duration `yaml:"timeout"`
}
