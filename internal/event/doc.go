// Package event provides the in-process publish/subscribe bus that
// connects command handlers to observers such as the websocket stream.
//
// Topics are dot-separated ("history.changed"). Subscriptions use patterns
// where "*" matches exactly one segment and "**" matches any number:
//
//	bus := event.NewBus()
//	sub, _ := bus.Subscribe("history.*", func(ctx context.Context, ev event.Event) {
//	    fmt.Println(ev.Type, ev.Payload)
//	})
//	defer bus.Unsubscribe(sub)
//
//	bus.Publish(ctx, event.New(event.TopicHistoryChanged, payload))
//
// Delivery is synchronous in the publisher's goroutine. Handlers must be
// quick; slow consumers should queue work themselves. A panicking handler
// is recovered and logged and does not affect other subscribers.
package event
