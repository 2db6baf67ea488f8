package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a published notification. Events are immutable once created.
type Event struct {
	ID      string
	Type    Topic
	Payload any
	Time    time.Time
}

// New creates an event with a fresh ID and the current time.
func New(t Topic, payload any) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    t,
		Payload: payload,
		Time:    time.Now(),
	}
}
