package dispatcher_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/easel/internal/dispatcher"
)

var errNotFound = errors.New("not found on disk")

func newDispatcher(t *testing.T, opts ...dispatcher.Option) *dispatcher.Dispatcher {
	t.Helper()
	d := dispatcher.New(dispatcher.DefaultConfig().WithMetrics(), opts...)
	require.NoError(t, d.RegisterFunc("echo", func(_ context.Context, args dispatcher.Args) (any, error) {
		msg, err := args.RequireString("msg")
		if err != nil {
			return nil, err
		}
		return map[string]string{"msg": msg}, nil
	}))
	require.NoError(t, d.RegisterFunc("boom", func(context.Context, dispatcher.Args) (any, error) {
		panic("kaboom")
	}))
	require.NoError(t, d.RegisterFunc("disk", func(context.Context, dispatcher.Args) (any, error) {
		return nil, errNotFound
	}))
	return d
}

func TestDispatch_Success(t *testing.T) {
	d := newDispatcher(t)

	r := d.Dispatch(context.Background(), "echo", []byte(`{"msg":"hi"}`))
	require.True(t, r.OK(), "unexpected error: %v", r.Err)
	assert.Equal(t, "ok", r.Status())

	reply := gjson.ParseBytes(r.JSON())
	assert.True(t, reply.Get("ok").Bool())
	assert.Equal(t, "hi", reply.Get("data.msg").String())
}

func TestDispatch_UnknownCommand(t *testing.T) {
	d := newDispatcher(t)

	r := d.Dispatch(context.Background(), "nope", nil)
	require.NotNil(t, r.Err)
	assert.Equal(t, dispatcher.CodeUnknownCommand, r.Err.Code)

	reply := gjson.ParseBytes(r.JSON())
	assert.False(t, reply.Get("ok").Bool())
	assert.Equal(t, "unknown_command", reply.Get("error.code").String())
	assert.Contains(t, reply.Get("error.message").String(), "nope")
}

func TestDispatch_InvalidArgs(t *testing.T) {
	d := newDispatcher(t)

	for _, raw := range []string{`[1,2]`, `{"msg":`, `"text"`} {
		r := d.Dispatch(context.Background(), "echo", []byte(raw))
		require.NotNil(t, r.Err, raw)
		assert.Equal(t, dispatcher.CodeInvalidArgument, r.Err.Code, raw)
	}

	r := d.Dispatch(context.Background(), "echo", []byte(`{}`))
	require.NotNil(t, r.Err)
	assert.Equal(t, dispatcher.CodeInvalidArgument, r.Err.Code)
	assert.Contains(t, r.Err.Error(), "msg")
}

func TestDispatch_PanicRecovered(t *testing.T) {
	d := newDispatcher(t)

	r := d.Dispatch(context.Background(), "boom", nil)
	require.NotNil(t, r.Err)
	assert.True(t, r.Panicked)
	assert.Equal(t, dispatcher.CodeInternal, r.Err.Code)
	assert.ErrorIs(t, r.Err, dispatcher.ErrPanic)

	// The dispatcher keeps working afterwards.
	r = d.Dispatch(context.Background(), "echo", []byte(`{"msg":"still alive"}`))
	assert.True(t, r.OK())

	snap := d.Metrics().Snapshot()
	assert.Equal(t, uint64(2), snap.TotalDispatches)
	assert.Equal(t, uint64(1), snap.TotalPanics)
}

func TestDispatch_Classifier(t *testing.T) {
	d := newDispatcher(t, dispatcher.WithClassifier(func(err error) (dispatcher.Code, bool) {
		if errors.Is(err, errNotFound) {
			return dispatcher.CodeIOError, true
		}
		return "", false
	}))

	r := d.Dispatch(context.Background(), "disk", nil)
	require.NotNil(t, r.Err)
	assert.Equal(t, dispatcher.CodeIOError, r.Err.Code)
	assert.ErrorIs(t, r.Err, errNotFound)

	// Without a classifier unknown errors are internal.
	r = newDispatcher(t).Dispatch(context.Background(), "disk", nil)
	assert.Equal(t, dispatcher.CodeInternal, r.Err.Code)
}

func TestDispatch_PostHooks(t *testing.T) {
	d := newDispatcher(t)

	var mu sync.Mutex
	var seen []string
	d.RegisterPostHook(dispatcher.PostDispatchFunc(func(_ context.Context, r dispatcher.Result) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, r.Command+":"+r.Status())
	}))

	d.Dispatch(context.Background(), "echo", []byte(`{"msg":"x"}`))
	d.Dispatch(context.Background(), "missing", nil)

	assert.Equal(t, []string{"echo:ok", "missing:unknown_command"}, seen)
}

func TestDispatch_Timeout(t *testing.T) {
	d := dispatcher.New(dispatcher.DefaultConfig().WithTimeout(20 * time.Millisecond))
	require.NoError(t, d.RegisterFunc("wait", func(ctx context.Context, _ dispatcher.Args) (any, error) {
		<-ctx.Done()
		return nil, dispatcher.NewError(dispatcher.CodeScriptError, ctx.Err())
	}))

	r := d.Dispatch(context.Background(), "wait", nil)
	require.NotNil(t, r.Err)
	assert.Equal(t, dispatcher.CodeScriptError, r.Err.Code)
	assert.ErrorIs(t, r.Err, context.DeadlineExceeded)
}

func TestDispatch_WithoutRecoveryPanics(t *testing.T) {
	d := dispatcher.New(dispatcher.DefaultConfig().WithPanicRecovery(false))
	require.NoError(t, d.RegisterFunc("boom", func(context.Context, dispatcher.Args) (any, error) {
		panic("kaboom")
	}))

	assert.Panics(t, func() {
		d.Dispatch(context.Background(), "boom", nil)
	})
}

func TestDispatch_Concurrent(t *testing.T) {
	d := newDispatcher(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				d.Dispatch(context.Background(), "echo", []byte(`{"msg":"x"}`))
			}
		}()
	}
	wg.Wait()

	stats := d.Metrics().CommandStats("echo")
	require.NotNil(t, stats)
	assert.Equal(t, uint64(1000), stats.DispatchCount)
	assert.Zero(t, stats.ErrorCount)
}
