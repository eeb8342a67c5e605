package events

import "context"

// Publisher accepts events on a fire-and-forget basis. Implementations must not block the caller
// on downstream delivery and must never surface delivery failures.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) { f(ctx, event) }

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, Event) {})
