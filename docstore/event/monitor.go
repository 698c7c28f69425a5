package event

import "context"

// CommandMonitor is the callback set a client invokes around command execution.
//
// Callbacks run synchronously on the goroutine executing the command, after the
// event payload is fully formed. A nil callback field disables that notification.
type CommandMonitor struct {
	Started   func(ctx context.Context, e *CommandStartedEvent)
	Succeeded func(ctx context.Context, e *CommandSucceededEvent)
	Failed    func(ctx context.Context, e *CommandFailedEvent)
}

// PoolMonitor is the callback set a client invokes on connection pool state changes.
type PoolMonitor struct {
	Cleared func(e *PoolClearedEvent)
}
