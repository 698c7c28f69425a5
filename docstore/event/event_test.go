package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_Kind_String(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		expected string
	}{
		{name: "started", kind: CommandStarted, expected: "commandStartedEvent"},
		{name: "succeeded", kind: CommandSucceeded, expected: "commandSucceededEvent"},
		{name: "failed", kind: CommandFailed, expected: "commandFailedEvent"},
		{name: "zero value", kind: Kind(0), expected: "unknownEvent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.String())
		})
	}
}

func Test_CommandStartedEvent_Accessors(t *testing.T) {
	evt := &CommandStartedEvent{
		Command:      []byte(`{"ping":1}`),
		DatabaseName: "appdata",
		Name:         "ping",
		ID:           7,
		ConnectionID: "localhost:27830",
	}

	assert.Equal(t, "ping", evt.CommandName())
	assert.Equal(t, int64(7), evt.RequestID())
	assert.Equal(t, CommandStarted, evt.Kind())
}

func Test_CommandSucceededEvent_Accessors(t *testing.T) {
	evt := &CommandSucceededEvent{
		Duration:     time.Millisecond,
		Reply:        []byte(`{"ok":1}`),
		Name:         "find",
		ID:           8,
		ConnectionID: "localhost:27830",
	}

	assert.Equal(t, "find", evt.CommandName())
	assert.Equal(t, int64(8), evt.RequestID())
	assert.Equal(t, CommandSucceeded, evt.Kind())
}

func Test_CommandFailedEvent_Accessors(t *testing.T) {
	evt := &CommandFailedEvent{
		Duration:     time.Millisecond,
		Name:         "insert",
		Failure:      "induced write failure",
		ID:           9,
		ConnectionID: "localhost:27831",
	}

	assert.Equal(t, "insert", evt.CommandName())
	assert.Equal(t, int64(9), evt.RequestID())
	assert.Equal(t, CommandFailed, evt.Kind())
}
