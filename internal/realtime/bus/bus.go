package bus

import (
	"context"

	"github.com/yungbote/derivedconcept-backend/internal/realtime"
)

// Bus publishes calculation events for the execution engine.
type Bus interface {
	Publish(ctx context.Context, msg realtime.Event) error
	Close() error
}

// Subscriber is the consumer side of Bus. Subscribe blocks, calling handle
// for every event whose name is in events (all events when empty), until ctx
// is cancelled or the subscription closes.
type Subscriber interface {
	Subscribe(ctx context.Context, events []string, handle func(realtime.Event)) error
	Close() error
}
