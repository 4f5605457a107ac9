package events

import (
	"context"
	"log"
	"time"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
	"github.com/cx-tal-miterani/coach-booking-client/internal/state"
)

// EventType doubles as the routing key of the published message
type EventType string

const (
	EventBookingPending   EventType = "booking.pending"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingFailed    EventType = "booking.failed"
	EventBookingReset     EventType = "booking.reset"
)

// Event is one booking lifecycle transition
type Event struct {
	Type           EventType `json:"type"`
	RequestID      string    `json:"requestId,omitempty"`
	AllocatedSeats []string  `json:"allocatedSeats,omitempty"`
	Error          string    `json:"error,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Publisher delivers lifecycle events
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// EventFor maps a status change to an event. It returns false for changes
// that are not published, such as entering booking.
func EventFor(prev models.AppStatus, snap state.Snapshot) (Event, bool) {
	if prev == snap.Status {
		return Event{}, false
	}
	event := Event{
		RequestID:  snap.CurrentRequestID(),
		OccurredAt: snap.UpdatedAt.UTC(),
	}
	switch snap.Status {
	case models.AppStatusPending:
		event.Type = EventBookingPending
	case models.AppStatusConfirmed:
		event.Type = EventBookingConfirmed
		event.AllocatedSeats = snap.AllocatedSeats
	case models.AppStatusFailed:
		event.Type = EventBookingFailed
		event.Error = snap.Error
	case models.AppStatusIdle:
		event.Type = EventBookingReset
	default:
		return Event{}, false
	}
	return event, true
}

// Forward publishes an event for each lifecycle transition seen on updates
// until updates is closed or ctx is done. Publish failures are logged only.
func Forward(ctx context.Context, updates <-chan state.Snapshot, publisher Publisher) {
	prev := models.AppStatusIdle
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			event, publish := EventFor(prev, snap)
			prev = snap.Status
			if !publish {
				continue
			}
			pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := publisher.Publish(pubCtx, event); err != nil {
				log.Printf("events: failed to publish %s for %q: %v", event.Type, event.RequestID, err)
			}
			cancel()
		}
	}
}
