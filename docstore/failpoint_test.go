package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_FailPointRegistry_TimesMode_ConsumesOneChargePerCommand(t *testing.T) {
	registry := newFailPointRegistry()

	err := registry.configure(Document{
		"mode": Document{"times": 2},
		"data": Document{"failCommands": []any{"insert"}, "errorMessage": "boom"},
	})
	assert.NoError(t, err)

	firstErr, firstClose := registry.intercept("insert")
	assert.EqualError(t, firstErr, "boom")
	assert.False(t, firstClose)

	secondErr, _ := registry.intercept("insert")
	assert.EqualError(t, secondErr, "boom")

	thirdErr, _ := registry.intercept("insert")
	assert.NoError(t, thirdErr, "the fail point should disarm after its charges are consumed")
}

func Test_FailPointRegistry_IgnoresUncoveredCommands(t *testing.T) {
	registry := newFailPointRegistry()

	err := registry.configure(Document{
		"mode": Document{"times": 1},
		"data": Document{"failCommands": []any{"insert"}},
	})
	assert.NoError(t, err)

	findErr, _ := registry.intercept("find")
	assert.NoError(t, findErr)

	insertErr, _ := registry.intercept("insert")
	assert.EqualError(t, insertErr, "fail point triggered", "uncovered commands should not consume charges")
}

func Test_FailPointRegistry_AlwaysOnMode_NeverDisarms(t *testing.T) {
	registry := newFailPointRegistry()

	err := registry.configure(Document{
		"mode": "alwaysOn",
		"data": Document{"failCommands": []any{"ping"}},
	})
	assert.NoError(t, err)

	for i := 0; i < 5; i++ {
		pingErr, _ := registry.intercept("ping")
		assert.EqualError(t, pingErr, "fail point triggered")
	}
}

func Test_FailPointRegistry_OffMode_DisarmsTheRegistry(t *testing.T) {
	registry := newFailPointRegistry()

	err := registry.configure(Document{
		"mode": "alwaysOn",
		"data": Document{"failCommands": []any{"insert"}},
	})
	assert.NoError(t, err)

	err = registry.configure(Document{"mode": "off"})
	assert.NoError(t, err)

	insertErr, _ := registry.intercept("insert")
	assert.NoError(t, insertErr)
}

func Test_FailPointRegistry_ArmingReplacesThePreviousConfiguration(t *testing.T) {
	registry := newFailPointRegistry()

	err := registry.configure(Document{
		"mode": "alwaysOn",
		"data": Document{"failCommands": []any{"insert"}, "errorMessage": "old"},
	})
	assert.NoError(t, err)

	err = registry.configure(Document{
		"mode": Document{"times": 1},
		"data": Document{"failCommands": []any{"find"}, "errorMessage": "new"},
	})
	assert.NoError(t, err)

	insertErr, _ := registry.intercept("insert")
	assert.NoError(t, insertErr, "the replaced configuration should no longer apply")

	findErr, _ := registry.intercept("find")
	assert.EqualError(t, findErr, "new")
}

func Test_FailPointRegistry_DataFieldsAtTheTopLevel(t *testing.T) {
	registry := newFailPointRegistry()

	err := registry.configure(Document{
		"mode":            Document{"times": 1},
		"failCommands":    []any{"delete"},
		"errorMessage":    "flat",
		"closeConnection": true,
	})
	assert.NoError(t, err)

	deleteErr, closeConnection := registry.intercept("delete")
	assert.EqualError(t, deleteErr, "flat")
	assert.True(t, closeConnection)
}

func Test_FailPointRegistry_TimesValueFromJSONNumbers(t *testing.T) {
	registry := newFailPointRegistry()

	err := registry.configure(Document{
		"mode": Document{"times": float64(1)},
		"data": Document{"failCommands": []any{"insert"}},
	})
	assert.NoError(t, err)

	insertErr, _ := registry.intercept("insert")
	assert.EqualError(t, insertErr, "fail point triggered")
}

//nolint:funlen
func Test_FailPointRegistry_InvalidConfigurations(t *testing.T) {
	tests := []struct {
		name string
		body Document
	}{
		{
			name: "missing mode",
			body: Document{"data": Document{"failCommands": []any{"insert"}}},
		},
		{
			name: "unknown mode literal",
			body: Document{"mode": "sometimes", "data": Document{"failCommands": []any{"insert"}}},
		},
		{
			name: "mode document without times",
			body: Document{"mode": Document{}, "data": Document{"failCommands": []any{"insert"}}},
		},
		{
			name: "mode document with zero times",
			body: Document{"mode": Document{"times": 0}, "data": Document{"failCommands": []any{"insert"}}},
		},
		{
			name: "mode document with negative times",
			body: Document{"mode": Document{"times": -2}, "data": Document{"failCommands": []any{"insert"}}},
		},
		{
			name: "mode document with non-numeric times",
			body: Document{"mode": Document{"times": "two"}, "data": Document{"failCommands": []any{"insert"}}},
		},
		{
			name: "missing failCommands",
			body: Document{"mode": Document{"times": 1}, "data": Document{}},
		},
		{
			name: "empty failCommands",
			body: Document{"mode": Document{"times": 1}, "data": Document{"failCommands": []any{}}},
		},
		{
			name: "failCommands with a non-string entry",
			body: Document{"mode": Document{"times": 1}, "data": Document{"failCommands": []any{42}}},
		},
		{
			name: "failCommands with an empty string entry",
			body: Document{"mode": Document{"times": 1}, "data": Document{"failCommands": []any{""}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := newFailPointRegistry()

			err := registry.configure(tt.body)

			assert.ErrorIs(t, err, ErrInvalidFailPoint)
		})
	}
}
