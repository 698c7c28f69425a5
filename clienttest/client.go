package clienttest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/docstorekit/docstore-go/docstore"
	"github.com/docstorekit/docstore-go/docstore/event"
)

const (
	// EnvTestURI names the environment variable the ambient base options are
	// parsed from when SetBaseOptions was not called.
	EnvTestURI = "DOCSTORE_TEST_URI"

	// DefaultTestURI is used when EnvTestURI is not set.
	DefaultTestURI = "docstore://localhost:27830,localhost:27831/harness_test?topology=sharded"
)

var (
	baseOptionsMu  sync.RWMutex
	baseOptionsSet bool
	baseOptions    docstore.Options
)

// SetBaseOptions replaces the ambient defaults the construction variants merge
// missing fields from. Hermetic test setups use it to inject an in-memory
// backend before building clients.
func SetBaseOptions(opts docstore.Options) {
	baseOptionsMu.Lock()
	defer baseOptionsMu.Unlock()

	baseOptions = opts
	baseOptionsSet = true
}

// loadBaseOptions returns the ambient defaults: the options set through
// SetBaseOptions, or the parsed EnvTestURI value, or the parsed DefaultTestURI.
// A malformed environment URI is a configuration error and fails fast.
func loadBaseOptions() docstore.Options {
	baseOptionsMu.RLock()
	defer baseOptionsMu.RUnlock()

	if baseOptionsSet {
		return baseOptions
	}

	uri := os.Getenv(EnvTestURI)
	if uri == "" {
		uri = DefaultTestURI
	}

	opts, err := docstore.ParseURI(uri)
	if err != nil {
		panic(fmt.Errorf("parsing %s: %w", EnvTestURI, err))
	}

	return opts
}

// EventClient composes a connected client with shared handles to the queues of
// the EventHandler observing it. The inner client is reachable through the
// embedded field for every client operation; the EventClient adds the
// correlation and filtering queries test assertions depend on.
type EventClient struct {
	*docstore.Client

	CommandEvents     *EventQueue[event.CommandEvent]
	PoolClearedEvents *EventQueue[*event.PoolClearedEvent]
}

// NewEventClient builds an instrumented client from the ambient base options.
func NewEventClient(ctx context.Context) (*EventClient, error) {
	return NewEventClientWithOptions(ctx, nil)
}

// NewEventClientWithOptions builds an instrumented client from the supplied
// options, filling missing fields from the ambient base options. A non-empty
// endpoint list in opts takes precedence over the ambient list.
func NewEventClientWithOptions(ctx context.Context, opts *docstore.Options) (*EventClient, error) {
	return newEventClient(ctx, mergeWithBase(opts))
}

// NewEventClientWithAdditionalOptions builds an instrumented client like
// NewEventClientWithOptions and applies two test-only adjustments: a heartbeat
// interval override when heartbeat is positive, and endpoint truncation.
//
// When the merged topology is sharded and useMultipleRouters does not
// explicitly request multiple endpoints, the endpoint list is truncated to one
// entry so event ordering stays deterministic for assertions.
func NewEventClientWithAdditionalOptions(
	ctx context.Context,
	opts *docstore.Options,
	heartbeat time.Duration,
	useMultipleRouters *bool,
) (*EventClient, error) {
	merged := mergeWithBase(opts)

	if heartbeat > 0 {
		merged.HeartbeatInterval = heartbeat
	}

	if merged.Topology == docstore.TopologySharded && !boolValue(useMultipleRouters) && len(merged.Hosts) > 1 {
		merged.Hosts = merged.Hosts[:1]
	}

	return newEventClient(ctx, merged)
}

// NewEventClientFromURI builds an instrumented client from a connection URI,
// filling non-endpoint fields from the ambient base options.
//
// An explicit true useMultipleRouters demands at least two endpoints and
// panics with ErrInsufficientEndpoints otherwise, before any test body runs.
// An explicit false truncates the endpoint list to one entry. Nil leaves the
// list as parsed.
func NewEventClientFromURI(ctx context.Context, uri string, useMultipleRouters *bool) (*EventClient, error) {
	parsed, err := docstore.ParseURI(uri)
	if err != nil {
		return nil, err
	}

	opts := parsed.Merge(loadBaseOptions())

	if useMultipleRouters != nil {
		if *useMultipleRouters {
			if len(opts.Hosts) < 2 {
				panic(fmt.Errorf("%w: need at least 2, have %d", ErrInsufficientEndpoints, len(opts.Hosts)))
			}
		} else if len(opts.Hosts) > 1 {
			opts.Hosts = opts.Hosts[:1]
		}
	}

	return newEventClient(ctx, opts)
}

// newEventClient attaches a fresh EventHandler to a new client, connects it,
// and clears the command queue so the handshake events of Connect never reach
// observers. Tests only ever see events caused by the test body.
func newEventClient(ctx context.Context, opts docstore.Options) (*EventClient, error) {
	handler := NewEventHandler()
	opts.CommandMonitor = handler.CommandMonitor()
	opts.PoolMonitor = handler.PoolMonitor()

	client, err := docstore.NewClient(opts)
	if err != nil {
		return nil, err
	}

	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	handler.CommandEvents.Clear()

	return &EventClient{
		Client:            client,
		CommandEvents:     handler.CommandEvents,
		PoolClearedEvents: handler.PoolClearedEvents,
	}, nil
}

// Topology returns the deployment classification literal: "sharded",
// "replicaset", or "single".
func (ec *EventClient) Topology() string {
	return ec.Client.Topology().String()
}

// mergeWithBase layers the supplied options over the ambient base options.
func mergeWithBase(opts *docstore.Options) docstore.Options {
	base := loadBaseOptions()

	if opts == nil {
		return base
	}

	return opts.Merge(base)
}

// boolValue reads a three-state flag; nil means "not requested".
func boolValue(flag *bool) bool {
	return flag != nil && *flag
}
