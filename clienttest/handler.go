package clienttest

import (
	"context"

	"github.com/docstorekit/docstore-go/docstore/event"
)

// EventHandler is the subscription sink attached to one client instance. Each
// emitted event is appended to the matching queue in arrival order. The
// handler never clears its queues on its own; clearing is its owner's call.
type EventHandler struct {
	CommandEvents     *EventQueue[event.CommandEvent]
	PoolClearedEvents *EventQueue[*event.PoolClearedEvent]
}

// NewEventHandler constructs a handler with two empty queues.
func NewEventHandler() *EventHandler {
	return &EventHandler{
		CommandEvents:     NewEventQueue[event.CommandEvent](),
		PoolClearedEvents: NewEventQueue[*event.PoolClearedEvent](),
	}
}

// CommandMonitor returns the callback set that appends command lifecycle
// events to the command queue.
func (h *EventHandler) CommandMonitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Started: func(_ context.Context, e *event.CommandStartedEvent) {
			h.CommandEvents.Append(e)
		},
		Succeeded: func(_ context.Context, e *event.CommandSucceededEvent) {
			h.CommandEvents.Append(e)
		},
		Failed: func(_ context.Context, e *event.CommandFailedEvent) {
			h.CommandEvents.Append(e)
		},
	}
}

// PoolMonitor returns the callback set that appends pool lifecycle events to
// the pool-cleared queue.
func (h *EventHandler) PoolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Cleared: func(e *event.PoolClearedEvent) {
			h.PoolClearedEvents.Append(e)
		},
	}
}
