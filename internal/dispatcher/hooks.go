package dispatcher

import "context"

// PostDispatchHook is called after every dispatch, including failures.
type PostDispatchHook interface {
	PostDispatch(ctx context.Context, result Result)
}

// PostDispatchFunc is a function adapter for PostDispatchHook.
type PostDispatchFunc func(ctx context.Context, result Result)

// PostDispatch implements PostDispatchHook.
func (f PostDispatchFunc) PostDispatch(ctx context.Context, result Result) {
	f(ctx, result)
}
