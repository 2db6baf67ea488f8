package script

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/easel/internal/canvas"
)

// Default limits for a script run.
const (
	DefaultTimeout  = 2 * time.Second
	DefaultMaxCalls = 100_000
)

// Runner executes drawing scripts. A Runner holds no Lua state between
// runs and is safe for concurrent use.
type Runner struct {
	timeout  time.Duration
	maxCalls int
	disabled bool
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout bounds the wall-clock time of a run. Non-positive values
// select DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMaxCalls bounds the number of drawing calls per run.
func WithMaxCalls(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxCalls = n
		}
	}
}

// WithLogger sets the logger that receives script print output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Disabled makes every Run fail with ErrDisabled.
func Disabled() Option {
	return func(r *Runner) {
		r.disabled = true
	}
}

// NewRunner creates a runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		timeout:  DefaultTimeout,
		maxCalls: DefaultMaxCalls,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Timeout returns the per-run time limit.
func (r *Runner) Timeout() time.Duration {
	return r.timeout
}

// Run executes source against a copy of base and returns the drawn canvas.
// base is never modified; nil means a blank canvas.
func (r *Runner) Run(ctx context.Context, source string, base *image.RGBA) (*image.RGBA, error) {
	if r.disabled {
		return nil, ErrDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	L := newState()
	defer L.Close()
	L.SetContext(ctx)

	installPrint(L, r.logger)
	b := newBindings(canvas.NewRasterizer(base), r.maxCalls)
	b.install(L)

	if err := r.exec(L, source); err != nil {
		switch {
		case b.overLimit:
			return nil, fmt.Errorf("%w: %w", ErrScript, ErrCallLimit)
		case ctx.Err() != nil:
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %w after %s", ErrScript, ErrTimeout, r.timeout)
			}
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s", ErrScript, describe(err))
	}
	return b.raster.Image(), nil
}

// exec runs source, converting panics raised inside Go callbacks to errors.
func (r *Runner) exec(L *lua.LState, source string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()
	return L.DoString(source)
}

// describe extracts the Lua error message without the Go stack trace.
func describe(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	return err.Error()
}
