package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/easel/internal/config/loader"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "EASEL_"

// Config is the complete application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	History HistoryConfig `yaml:"history"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Script  ScriptConfig  `yaml:"script"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         "127.0.0.1:7420",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 32 << 20,
		},
		History: HistoryConfig{Capacity: 50},
		Storage: StorageConfig{Dir: "saved_images"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		Script:  ScriptConfig{Enabled: true, Timeout: 2 * time.Second},
	}
}

// Options selects the sources Load reads.
type Options struct {
	// Path is the config file. Empty means no file; a missing file is not
	// an error.
	Path string

	// FS reads the config file. Nil uses the OS file system.
	FS loader.FileSystem

	// Env overrides the environment loader, mainly for tests.
	Env loader.Loader

	// DisableEnv skips environment variables.
	DisableEnv bool

	// Overrides holds flag values keyed by dotted path, e.g.
	// "server.addr". They have the highest priority.
	Overrides map[string]any
}

// Load builds a configuration from defaults, the config file, the
// environment and overrides, then validates it.
func Load(opts Options) (*Config, error) {
	merged, err := toMap(Default())
	if err != nil {
		return nil, err
	}

	if opts.Path != "" {
		fileCfg, err := loader.ForPath(opts.FS, opts.Path).Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, fileCfg)
	}

	if !opts.DisableEnv {
		env := opts.Env
		if env == nil {
			el := loader.NewEnvLoader(EnvPrefix)
			el.AddMapping("EASEL_LOG_LEVEL", "logging.level")
			el.AddMapping("EASEL_CONFIG", "")
			env = el
		}
		envCfg, err := env.Load()
		if err != nil {
			return nil, fmt.Errorf("loading environment: %w", err)
		}
		merged = loader.DeepMerge(merged, envCfg)
	}

	if len(opts.Overrides) > 0 {
		flags := make(map[string]any)
		for path, v := range opts.Overrides {
			loader.SetPath(flags, path, v)
		}
		merged = loader.DeepMerge(merged, flags)
	}

	cfg, err := fromMap(merged)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// toMap converts a Config into the nested map form used for merging.
func toMap(c *Config) (map[string]any, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return m, nil
}

// fromMap decodes a merged map into a Config.
func fromMap(m map[string]any) (*Config, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &c, nil
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Validate reports every invalid setting. The returned error joins one
// *ValidationError per problem.
func (c *Config) Validate() error {
	var errs []error
	add := func(path, msg string, value any, code ValidationErrorCode) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value, Code: code})
	}

	if !c.Server.Stdio && c.Server.Addr == "" {
		add("server.addr", "required unless server.stdio is set", c.Server.Addr, ErrCodeRequiredMissing)
	}
	if c.Server.ReadTimeout < 0 {
		add("server.read_timeout", "must not be negative", c.Server.ReadTimeout, ErrCodeOutOfRange)
	}
	if c.Server.WriteTimeout < 0 {
		add("server.write_timeout", "must not be negative", c.Server.WriteTimeout, ErrCodeOutOfRange)
	}
	if c.Server.MaxBodyBytes <= 0 {
		add("server.max_body_bytes", "must be positive", c.Server.MaxBodyBytes, ErrCodeOutOfRange)
	}
	for i, origin := range c.Server.AllowedOrigins {
		if !validOrigin(origin) {
			add(fmt.Sprintf("server.allowed_origins[%d]", i), "must be * or scheme://host[:port]", origin, ErrCodeInvalidEnum)
		}
	}
	if c.History.Capacity < 1 || c.History.Capacity > 10000 {
		add("history.capacity", "must be between 1 and 10000", c.History.Capacity, ErrCodeOutOfRange)
	}
	if c.Storage.Dir == "" {
		add("storage.dir", "required", c.Storage.Dir, ErrCodeRequiredMissing)
	}
	if !oneOf(c.Logging.Level, logLevels) {
		add("logging.level", "must be one of "+strings.Join(logLevels, ", "), c.Logging.Level, ErrCodeInvalidEnum)
	}
	if !oneOf(c.Logging.Format, logFormats) {
		add("logging.format", "must be one of "+strings.Join(logFormats, ", "), c.Logging.Format, ErrCodeInvalidEnum)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		add("metrics.path", "must start with /", c.Metrics.Path, ErrCodeInvalidEnum)
	}
	if c.Script.Timeout <= 0 {
		add("script.timeout", "must be positive", c.Script.Timeout, ErrCodeOutOfRange)
	}

	return errors.Join(errs...)
}

func validOrigin(s string) bool {
	if s == "*" {
		return true
	}
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != "" && (u.Path == "" || u.Path == "/")
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
