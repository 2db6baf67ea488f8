package dispatcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Dispatcher routes commands to handlers and coordinates execution.
type Dispatcher struct {
	mu sync.RWMutex

	registry *Registry
	config   Config
	metrics  *Metrics
	logger   *slog.Logger
	classify Classifier

	postHooks []PostDispatchHook
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithClassifier sets the function that maps handler errors to codes.
func WithClassifier(c Classifier) Option {
	return func(d *Dispatcher) {
		d.classify = c
	}
}

// New creates a new dispatcher with the given configuration.
func New(config Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: NewRegistry(),
		config:   config,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if config.EnableMetrics {
		d.metrics = NewMetrics()
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewWithDefaults creates a new dispatcher with default configuration.
func NewWithDefaults() *Dispatcher {
	return New(DefaultConfig())
}

// Register registers a handler for a command name.
func (d *Dispatcher) Register(name string, h Handler) error {
	return d.registry.Register(name, h)
}

// RegisterFunc registers a handler function for a command name.
func (d *Dispatcher) RegisterFunc(name string, fn func(context.Context, Args) (any, error)) error {
	return d.registry.Register(name, HandlerFunc(fn))
}

// RegisterPostHook registers a post-dispatch hook.
func (d *Dispatcher) RegisterPostHook(hook PostDispatchHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.postHooks = append(d.postHooks, hook)
}

// Dispatch parses raw JSON arguments and executes a command.
func (d *Dispatcher) Dispatch(ctx context.Context, command string, rawArgs []byte) Result {
	args, err := ParseArgs(rawArgs)
	if err != nil {
		return d.finish(ctx, Result{Command: command, Err: toError(err, nil)})
	}
	return d.DispatchArgs(ctx, command, args)
}

// DispatchArgs executes a command with parsed arguments.
func (d *Dispatcher) DispatchArgs(ctx context.Context, command string, args Args) Result {
	start := time.Now()

	h := d.registry.Get(command)
	if h == nil {
		return d.finish(ctx, Result{
			Command: command,
			Err:     Errorf(CodeUnknownCommand, "unknown command: %s", command),
		})
	}

	if d.config.DefaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.DefaultTimeout)
		defer cancel()
	}

	var result Result
	if d.config.RecoverFromPanic {
		result = d.executeWithRecovery(ctx, h, command, args)
	} else {
		result = d.execute(ctx, h, command, args)
	}
	result.Duration = time.Since(start)

	return d.finish(ctx, result)
}

func (d *Dispatcher) execute(ctx context.Context, h Handler, command string, args Args) Result {
	data, err := h.Handle(ctx, args)
	if err != nil {
		return Result{Command: command, Err: toError(err, d.classify)}
	}
	return Result{Command: command, Data: data}
}

// executeWithRecovery executes a handler with panic recovery.
func (d *Dispatcher) executeWithRecovery(ctx context.Context, h Handler, command string, args Args) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)

			d.logger.Error("command handler panicked",
				"command", command,
				"panic", r,
				"stack", string(stack[:n]),
			)
			result = Result{
				Command:  command,
				Err:      &Error{Code: CodeInternal, Message: fmt.Sprintf("internal error in %s", command), Err: ErrPanic},
				Panicked: true,
			}
		}
	}()

	return d.execute(ctx, h, command, args)
}

// finish records metrics, logs and runs post-dispatch hooks.
func (d *Dispatcher) finish(ctx context.Context, r Result) Result {
	if d.metrics != nil {
		d.metrics.Record(r)
	}

	if r.OK() {
		d.logger.Debug("command dispatched", "command", r.Command, "duration", r.Duration)
	} else {
		d.logger.Warn("command failed",
			"command", r.Command,
			"code", r.Err.Code,
			"error", r.Err.Error(),
			"duration", r.Duration,
		)
	}

	d.mu.RLock()
	hooks := make([]PostDispatchHook, len(d.postHooks))
	copy(hooks, d.postHooks)
	d.mu.RUnlock()

	for _, h := range hooks {
		h.PostDispatch(ctx, r)
	}
	return r
}

// Registry returns the handler registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Metrics returns the metrics collector (may be nil if disabled).
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Config returns the dispatcher configuration.
func (d *Dispatcher) Config() Config {
	return d.config
}
