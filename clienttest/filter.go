package clienttest

import (
	"github.com/docstorekit/docstore-go/docstore"
	"github.com/docstorekit/docstore-go/docstore/event"
)

// GetCommandStartedEvents returns copies of all buffered started events whose
// command name matches, in emission order, without removing anything.
func (ec *EventClient) GetCommandStartedEvents(commandName string) []event.CommandStartedEvent {
	matching := make([]event.CommandStartedEvent, 0)

	for _, ev := range ec.CommandEvents.Events() {
		started, isStarted := ev.(*event.CommandStartedEvent)
		if !isStarted || started.CommandName() != commandName {
			continue
		}

		matching = append(matching, *started)
	}

	return matching
}

// GetFilteredEvents returns copies of the buffered command events surviving
// the filters, in emission order, without removing anything.
//
// Events of the reserved diagnostic command are excluded unconditionally. A
// non-empty observe set keeps only events whose kind literal appears in it
// ("commandStartedEvent", "commandSucceededEvent", "commandFailedEvent"); a
// non-empty ignore list drops events whose command name appears in it.
func (ec *EventClient) GetFilteredEvents(observeEvents []string, ignoredCommandNames []string) []event.CommandEvent {
	observed := toSet(observeEvents)
	ignored := toSet(ignoredCommandNames)

	filtered := make([]event.CommandEvent, 0)

	for _, ev := range ec.CommandEvents.Events() {
		if ev.CommandName() == docstore.CommandConfigureFailPoint {
			continue
		}

		if len(observed) > 0 {
			if _, keep := observed[ev.Kind().String()]; !keep {
				continue
			}
		}

		if _, drop := ignored[ev.CommandName()]; drop {
			continue
		}

		filtered = append(filtered, copyEvent(ev))
	}

	return filtered
}

// copyEvent clones one event so callers cannot mutate the buffered original.
func copyEvent(ev event.CommandEvent) event.CommandEvent {
	switch e := ev.(type) {
	case *event.CommandStartedEvent:
		copied := *e
		return &copied
	case *event.CommandSucceededEvent:
		copied := *e
		return &copied
	case *event.CommandFailedEvent:
		copied := *e
		return &copied
	default:
		return ev
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))

	for _, value := range values {
		set[value] = struct{}{}
	}

	return set
}
