package event

import (
	"context"
	"fmt"

	"github.com/stitchwork/stitch/model"
)

// Handler receives every event published on a subscribed channel.
// Delivery is at-most-once and best-effort: only handlers registered at
// publish time see the event.
type Handler func(ev model.Event)

// Bus is the publish/subscribe fan-out for execution lifecycle events.
// Implementations stamp the event timestamp at publish and must accept
// concurrent subscribe/unsubscribe while publishes are in flight.
type Bus interface {
	Publish(ctx context.Context, channel string, ev model.Event) error
	// Subscribe registers a handler and returns its unsubscribe func.
	Subscribe(channel string, handler Handler) (func(), error)
	Start() error
	Stop() error
}

func ExecutionChannel(executionId string) string {
	return fmt.Sprintf("execution:%s", executionId)
}

func WorkflowChannel(workflowId string) string {
	return fmt.Sprintf("workflow:%s", workflowId)
}
