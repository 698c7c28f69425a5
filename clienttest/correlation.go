package clienttest

import (
	"fmt"

	"github.com/docstorekit/docstore-go/docstore/event"
)

// GetSuccessfulCommandExecution finds the next completed (started, succeeded)
// pair for the given command name and returns value copies of both events.
//
// The scan is destructive and front-to-back: it holds the command queue's
// write lock for its entire duration and permanently removes every event it
// inspects. Events of other commands are discarded. The first event of the
// target command must be its started variant. While that started event is
// pending, same-name events carrying a different request id belong to
// unrelated concurrent invocations and are discarded without disturbing the
// pending correlation. The pair completes when the event carrying the pending
// request id arrives, which must be the succeeded variant.
//
// Sequential calls for one command name therefore yield pairs in stream
// order. Note that the discarding of same-name different-id events also
// consumes started events a later call might have matched; callers correlate
// per command name, not per request id.
//
// Fatal conditions panic with a wrapped sentinel: ErrUnexpectedEventVariant
// when a protocol step meets the wrong variant, ErrCorrelationNotFound when
// the queue is exhausted before a pair completes.
func (ec *EventClient) GetSuccessfulCommandExecution(commandName string) (
	event.CommandStartedEvent,
	event.CommandSucceededEvent,
) {
	queue := ec.CommandEvents

	queue.beginWrite()
	defer queue.mu.Unlock()

	var pending *event.CommandStartedEvent

	for {
		next, ok := queue.popFrontLocked()
		if !ok {
			panic(fmt.Errorf("%w for command %q", ErrCorrelationNotFound, commandName))
		}

		if next.CommandName() != commandName {
			continue
		}

		if pending == nil {
			started, isStarted := next.(*event.CommandStartedEvent)
			if !isStarted {
				panic(fmt.Errorf("%w: expected %s for command %q, got %s",
					ErrUnexpectedEventVariant, event.CommandStarted, commandName, next.Kind()))
			}

			pending = started

			continue
		}

		if next.RequestID() != pending.RequestID() {
			continue
		}

		succeeded, isSucceeded := next.(*event.CommandSucceededEvent)
		if !isSucceeded {
			panic(fmt.Errorf("%w: expected %s for command %q with request id %d, got %s",
				ErrUnexpectedEventVariant, event.CommandSucceeded, commandName, pending.RequestID(), next.Kind()))
		}

		queue.endWrite()

		return *pending, *succeeded
	}
}
