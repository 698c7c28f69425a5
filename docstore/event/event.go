package event

import (
	"encoding/json"
	"time"
)

// Kind is the discriminant for the command event union.
type Kind int

const (
	// CommandStarted marks an event emitted when a command begins executing.
	CommandStarted Kind = iota + 1
	// CommandSucceeded marks an event emitted when a command completes successfully.
	CommandSucceeded
	// CommandFailed marks an event emitted when a command terminates with an error.
	CommandFailed
)

// String returns the wire-format event name used in observe-sets of test definitions.
func (k Kind) String() string {
	switch k {
	case CommandStarted:
		return "commandStartedEvent"
	case CommandSucceeded:
		return "commandSucceededEvent"
	case CommandFailed:
		return "commandFailedEvent"
	default:
		return "unknownEvent"
	}
}

// CommandEvent is the union of the three command monitoring event variants.
//
// Exactly one of CommandStartedEvent, CommandSucceededEvent, or CommandFailedEvent
// implements it per value; the interface is sealed so no other variant can enter
// a command event stream.
type CommandEvent interface {
	// CommandName returns the name of the command this event describes.
	CommandName() string
	// RequestID returns the correlation key shared by a started event and its
	// terminal (succeeded or failed) event. Concurrent invocations of the same
	// command name are distinguished solely by this key.
	RequestID() int64
	// Kind returns the variant discriminant.
	Kind() Kind

	isCommandEvent()
}

// CommandStartedEvent is emitted when a command begins executing against an endpoint.
type CommandStartedEvent struct {
	// Command is the marshaled command body as sent to the endpoint.
	Command json.RawMessage
	// DatabaseName is the database the command targets.
	DatabaseName string
	// Name is the command name.
	Name string
	// ID is the request id drawn for this invocation.
	ID int64
	// ConnectionID identifies the endpoint (host:port) the command was routed to.
	ConnectionID string
}

// CommandName returns the command name.
func (e *CommandStartedEvent) CommandName() string { return e.Name }

// RequestID returns the correlation key.
func (e *CommandStartedEvent) RequestID() int64 { return e.ID }

// Kind returns CommandStarted.
func (e *CommandStartedEvent) Kind() Kind { return CommandStarted }

func (e *CommandStartedEvent) isCommandEvent() {}

// CommandSucceededEvent is emitted when a command completes without error.
type CommandSucceededEvent struct {
	// Duration is the wall-clock time the command execution took.
	Duration time.Duration
	// Reply is the marshaled reply document.
	Reply json.RawMessage
	// Name is the command name.
	Name string
	// ID is the request id drawn for this invocation.
	ID int64
	// ConnectionID identifies the endpoint (host:port) the command was routed to.
	ConnectionID string
}

// CommandName returns the command name.
func (e *CommandSucceededEvent) CommandName() string { return e.Name }

// RequestID returns the correlation key.
func (e *CommandSucceededEvent) RequestID() int64 { return e.ID }

// Kind returns CommandSucceeded.
func (e *CommandSucceededEvent) Kind() Kind { return CommandSucceeded }

func (e *CommandSucceededEvent) isCommandEvent() {}

// CommandFailedEvent is emitted when a command terminates with an error.
type CommandFailedEvent struct {
	// Duration is the wall-clock time until the failure surfaced.
	Duration time.Duration
	// Name is the command name.
	Name string
	// Failure is the error text of the failure.
	Failure string
	// ID is the request id drawn for this invocation.
	ID int64
	// ConnectionID identifies the endpoint (host:port) the command was routed to.
	ConnectionID string
}

// CommandName returns the command name.
func (e *CommandFailedEvent) CommandName() string { return e.Name }

// RequestID returns the correlation key.
func (e *CommandFailedEvent) RequestID() int64 { return e.ID }

// Kind returns CommandFailed.
func (e *CommandFailedEvent) Kind() Kind { return CommandFailed }

func (e *CommandFailedEvent) isCommandEvent() {}

// PoolClearedEvent is emitted when an endpoint's connection pool is invalidated
// and its connections are discarded. It is not part of the command event union.
type PoolClearedEvent struct {
	// Address is the endpoint (host:port) whose pool was cleared.
	Address string
	// Generation is the pool generation that was invalidated; connections from
	// this or older generations must not be reused.
	Generation uint64
	// Reason describes what triggered the clear.
	Reason string
}

// Interface compliance asserts for the command event union.
var _ CommandEvent = (*CommandStartedEvent)(nil)
var _ CommandEvent = (*CommandSucceededEvent)(nil)
var _ CommandEvent = (*CommandFailedEvent)(nil)
