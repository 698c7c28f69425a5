package docstore

import (
	"errors"
	"fmt"
	"sync"
)

const (
	failPointModeTimes    = "times"
	failPointModeAlwaysOn = "alwaysOn"
	failPointModeOff      = "off"

	alwaysOnCharges = -1
)

// failPoint is one armed fail point configuration.
type failPoint struct {
	commands        map[string]struct{}
	remaining       int
	errorMessage    string
	closeConnection bool
}

// failPointRegistry holds the client-local fail point state programmed through
// the configureFailPoint diagnostic command. At most one configuration is
// armed at a time; arming replaces the previous configuration.
type failPointRegistry struct {
	mu    sync.Mutex
	armed *failPoint
}

func newFailPointRegistry() *failPointRegistry {
	return &failPointRegistry{}
}

// configure arms or disarms the registry from a configureFailPoint command body:
//
//	{"mode": {"times": 2}, "data": {"failCommands": ["insert"], "errorMessage": "...", "closeConnection": false}}
//	{"mode": "alwaysOn", "data": {"failCommands": ["ping"]}}
//	{"mode": "off"}
//
// The data fields may also appear at the top level of the body.
func (r *failPointRegistry) configure(body Document) error {
	mode, times, modeErr := parseFailPointMode(body["mode"])
	if modeErr != nil {
		return modeErr
	}

	if mode == failPointModeOff {
		r.mu.Lock()
		r.armed = nil
		r.mu.Unlock()

		return nil
	}

	fp, err := buildFailPoint(body, mode, times)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.armed = fp
	r.mu.Unlock()

	return nil
}

// parseFailPointMode reads the mode argument, either a literal ("off",
// "alwaysOn") or a document ({"times": N}).
func parseFailPointMode(mode any) (string, int, error) {
	switch m := mode.(type) {
	case string:
		if m != failPointModeOff && m != failPointModeAlwaysOn {
			return "", 0, errors.Join(ErrInvalidFailPoint, fmt.Errorf("unknown mode %q", m))
		}

		return m, 0, nil

	case map[string]any:
		times, ok := asInt(m[failPointModeTimes])
		if !ok || times <= 0 {
			return "", 0, errors.Join(ErrInvalidFailPoint, fmt.Errorf("mode document needs a positive times value"))
		}

		return failPointModeTimes, times, nil

	default:
		return "", 0, errors.Join(ErrInvalidFailPoint, fmt.Errorf("mode must be a string or a document"))
	}
}

func buildFailPoint(body Document, mode string, times int) (*failPoint, error) {
	fp := &failPoint{
		commands:  map[string]struct{}{},
		remaining: alwaysOnCharges,
	}

	if mode == failPointModeTimes {
		fp.remaining = times
	}

	data, hasData := body["data"].(map[string]any)
	if !hasData {
		data = body
	}

	names, ok := data["failCommands"].([]any)
	if !ok || len(names) == 0 {
		return nil, errors.Join(ErrInvalidFailPoint, fmt.Errorf("failCommands must name at least one command"))
	}

	for _, name := range names {
		command, isString := name.(string)
		if !isString || command == "" {
			return nil, errors.Join(ErrInvalidFailPoint, fmt.Errorf("failCommands entries must be non-empty strings"))
		}

		fp.commands[command] = struct{}{}
	}

	if message, found := data["errorMessage"].(string); found {
		fp.errorMessage = message
	} else {
		fp.errorMessage = "fail point triggered"
	}

	fp.closeConnection, _ = data["closeConnection"].(bool)

	return fp, nil
}

// intercept consumes one charge when the command is covered by the armed
// configuration. It returns the configured failure and whether the endpoint's
// pool must be cleared; a nil error means the command may proceed.
func (r *failPointRegistry) intercept(commandName string) (error, bool) { //nolint:revive
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.armed == nil {
		return nil, false
	}

	if _, covered := r.armed.commands[commandName]; !covered {
		return nil, false
	}

	fp := r.armed

	if fp.remaining != alwaysOnCharges {
		fp.remaining--
		if fp.remaining == 0 {
			r.armed = nil
		}
	}

	return fmt.Errorf("%s", fp.errorMessage), fp.closeConnection
}

// asInt widens the numeric types a Document value can arrive as. Bodies built
// in Go carry int values; bodies round-tripped through JSON carry float64.
func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
