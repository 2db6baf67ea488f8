package dispatcher

import (
	"context"
	"time"
)

// Handler executes one command.
type Handler interface {
	Handle(ctx context.Context, args Args) (any, error)
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, args Args) (any, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, args Args) (any, error) {
	return f(ctx, args)
}

// Result is the outcome of a dispatched command.
type Result struct {
	Command  string
	Data     any
	Err      *Error
	Panicked bool
	Duration time.Duration
}

// OK reports whether the command succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Status returns "ok" or the error code.
func (r Result) Status() string {
	if r.Err == nil {
		return "ok"
	}
	return string(r.Err.Code)
}

// JSON encodes the result as a reply envelope.
func (r Result) JSON() []byte {
	if r.Err != nil {
		return Failure(r.Err)
	}
	return Success(r.Data)
}
