package event

import "log/slog"

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used to report handler panics.
func WithLogger(l *slog.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithPanicHandler sets a callback invoked after a handler panic has been
// recovered.
func WithPanicHandler(fn func(ev Event, recovered any)) BusOption {
	return func(b *Bus) {
		b.onPanic = fn
	}
}
