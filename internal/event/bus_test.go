package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestBus_SubscribePublish(t *testing.T) {
	bus := NewBus()

	var got []Event
	_, err := bus.Subscribe(TopicHistoryChanged, func(_ context.Context, ev Event) {
		got = append(got, ev)
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	payload := HistoryChanged{Command: "undo", Moved: true}
	if err := bus.Publish(context.Background(), New(TopicHistoryChanged, payload)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := bus.Publish(context.Background(), New(TopicCanvasSaved, CanvasFile{})); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("delivered %d events, want 1", len(got))
	}
	if got[0].Payload.(HistoryChanged).Command != "undo" {
		t.Errorf("payload = %+v", got[0].Payload)
	}
	if got[0].ID == "" || got[0].Time.IsZero() {
		t.Error("event should carry an ID and time")
	}
}

func TestBus_WildcardSubscription(t *testing.T) {
	bus := NewBus()

	var history, all atomic.Int32
	bus.Subscribe("history.*", func(context.Context, Event) { history.Add(1) })
	bus.Subscribe("**", func(context.Context, Event) { all.Add(1) })

	ctx := context.Background()
	bus.Publish(ctx, New(TopicHistoryChanged, nil))
	bus.Publish(ctx, New(TopicHistoryReset, nil))
	bus.Publish(ctx, New(TopicConfigReloaded, nil))

	if history.Load() != 2 {
		t.Errorf("history.* received %d, want 2", history.Load())
	}
	if all.Load() != 3 {
		t.Errorf("** received %d, want 3", all.Load())
	}
}

func TestBus_SubscribeErrors(t *testing.T) {
	bus := NewBus()

	if _, err := bus.Subscribe("history.changed", nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("nil handler error = %v", err)
	}
	if _, err := bus.Subscribe("", func(context.Context, Event) {}); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v", err)
	}
	if _, err := bus.Subscribe("a..b", func(context.Context, Event) {}); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("malformed topic error = %v", err)
	}
	if err := bus.Publish(context.Background(), Event{}); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("publish without topic error = %v", err)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	var count atomic.Int32
	sub, _ := bus.Subscribe("history.changed", func(context.Context, Event) { count.Add(1) })

	if err := bus.Unsubscribe(sub); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if err := bus.Unsubscribe(sub); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Errorf("second Unsubscribe() error = %v", err)
	}

	bus.Publish(context.Background(), New(TopicHistoryChanged, nil))
	if count.Load() != 0 {
		t.Error("unsubscribed handler was called")
	}
}

func TestBus_HandlerPanicIsolated(t *testing.T) {
	var panicked atomic.Value
	bus := NewBus(WithPanicHandler(func(_ Event, r any) { panicked.Store(r) }))

	var called atomic.Bool
	bus.Subscribe("history.changed", func(context.Context, Event) { panic("boom") })
	bus.Subscribe("history.changed", func(context.Context, Event) { called.Store(true) })

	if err := bus.Publish(context.Background(), New(TopicHistoryChanged, nil)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if !called.Load() {
		t.Error("second handler should run after the first panics")
	}
	if panicked.Load() != "boom" {
		t.Errorf("panic handler got %v", panicked.Load())
	}

	stats := bus.Stats()
	if stats.Panics != 1 || stats.Delivered != 1 || stats.Published != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestBus_PublishHonoursCancelledContext(t *testing.T) {
	bus := NewBus()
	var count atomic.Int32
	bus.Subscribe("history.changed", func(context.Context, Event) { count.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := bus.Publish(ctx, New(TopicHistoryChanged, nil)); !errors.Is(err, context.Canceled) {
		t.Errorf("Publish() error = %v, want context.Canceled", err)
	}
	if count.Load() != 0 {
		t.Error("handler should not run with a cancelled context")
	}
}

func TestBus_Close(t *testing.T) {
	bus := NewBus()
	bus.Subscribe("history.changed", func(context.Context, Event) {})
	bus.Close()

	if err := bus.Publish(context.Background(), New(TopicHistoryChanged, nil)); !errors.Is(err, ErrBusClosed) {
		t.Errorf("Publish() error = %v", err)
	}
	if _, err := bus.Subscribe("history.changed", func(context.Context, Event) {}); !errors.Is(err, ErrBusClosed) {
		t.Errorf("Subscribe() error = %v", err)
	}
	if bus.Stats().Subscribers != 0 {
		t.Error("Close should drop subscribers")
	}
}

func TestBus_ConcurrentUse(t *testing.T) {
	bus := NewBus()
	var count atomic.Int64
	bus.Subscribe("**", func(context.Context, Event) { count.Add(1) })

	const workers, perWorker = 8, 100
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				bus.Publish(context.Background(), New(TopicHistoryChanged, j))
			}
		}()
	}
	// Subscribing while publishing must not race.
	for i := 0; i < 10; i++ {
		sub, _ := bus.Subscribe("canvas.*", func(context.Context, Event) {})
		bus.Unsubscribe(sub)
	}
	wg.Wait()

	if got := count.Load(); got != workers*perWorker {
		t.Errorf("delivered %d, want %d", got, workers*perWorker)
	}
}
