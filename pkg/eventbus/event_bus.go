// Package eventbus provides event-driven communication between the API, the worker and the
// notification sender.
package eventbus

import (
	"context"

	"github.com/dukex/caseflow/pkg/events"
)

// Event is anything published on the caseflow topic. The type selects the
// handler on the receiving side.
type Event interface {
	GetType() events.EventType
}

// EventPublisher publishes an event. key is the partition key: the tenant
// for domain events and notifications, the workflow for run completions.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	// Handle registers the handler of one event type. Register every handler
	// before Subscribe.
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a pointer to the decoded event, e.g. *events.EventReceived.
// A returned error nacks the message so the bus redelivers it.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
}
