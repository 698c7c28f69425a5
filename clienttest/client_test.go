package clienttest_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/docstorekit/docstore-go/clienttest"
	"github.com/docstorekit/docstore-go/docstore"
	"github.com/docstorekit/docstore-go/docstore/event"
	. "github.com/docstorekit/docstore-go/testutil/helper" //nolint:revive
)

func Test_NewEventClient_UsesAmbientBaseOptions(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clienttest.SetBaseOptions(BaseTestOptions(t))

	// act
	ec, err := clienttest.NewEventClient(ctxWithTimeout)

	// assert
	assert.NoError(t, err)

	t.Cleanup(func() {
		_ = ec.Disconnect(context.Background())
	})

	assert.Equal(t, "sharded", ec.Topology())
	assert.Len(t, ec.Hosts(), 2)
	assert.Equal(t, 0, ec.CommandEvents.Len(), "handshake events must not reach observers")
}

func Test_EventClient_Construction_HidesTheConnectHandshake(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ec := GivenConnectedEventClient(t, ctxWithTimeout)

	// assert - the hello handshake of Connect is invisible
	assert.Equal(t, 0, ec.CommandEvents.Len())

	// act - the same command issued by the test body is observed
	_, err := ec.RunCommand(ctxWithTimeout, TestDatabaseName, docstore.Command{Name: docstore.CommandHello})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 2, ec.CommandEvents.Len())
}

func Test_EventClient_ConcurrentCommands_EmitOneStartedEventPerInvocation(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ec := GivenConnectedEventClient(t, ctxWithTimeout)
	collection := GivenUniqueCollectionName(t)

	// act
	const workers = 10

	var wg sync.WaitGroup

	for n := 0; n < workers; n++ {
		n := n

		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := ec.Database(TestDatabaseName).Collection(collection).
				InsertMany(ctxWithTimeout, []docstore.Document{{"worker": n}})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	// assert
	assert.Equal(t, 2*workers, ec.CommandEvents.Len())

	inserts := ec.GetCommandStartedEvents("insert")
	assert.Len(t, inserts, workers)

	seen := make(map[int64]bool, len(inserts))
	for _, started := range inserts {
		assert.False(t, seen[started.ID], "request ids must be unique across concurrent invocations")
		seen[started.ID] = true
	}
}

func Test_EventClient_CloseConnectionFailPoint_ReportsTheFailureAndClearsThePool(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ec := GivenConnectedEventClient(t, ctxWithTimeout)
	collection := GivenUniqueCollectionName(t)

	// arrange
	GivenFailPointArmed(t, ctxWithTimeout, ec, 1, []string{"find"}, "socket closed", true)

	// act
	_, err := ec.Database(TestDatabaseName).Collection(collection).Find(ctxWithTimeout, nil)

	// assert - the command fails with the configured message
	assert.ErrorIs(t, err, docstore.ErrCommandFailed)
	assert.ErrorContains(t, err, "socket closed")

	failedEvents := ec.GetFilteredEvents([]string{"commandFailedEvent"}, nil)
	assert.Len(t, failedEvents, 1)

	failed, ok := failedEvents[0].(*event.CommandFailedEvent)
	assert.True(t, ok)
	assert.Equal(t, "find", failed.Name)
	assert.Contains(t, failed.Failure, "socket closed")

	// assert - the endpoint's pool was invalidated
	assert.Equal(t, 1, ec.PoolClearedEvents.Len())

	cleared, ok := ec.PoolClearedEvents.PopFront()
	assert.True(t, ok)
	assert.Contains(t, ec.Hosts(), cleared.Address)
	assert.Equal(t, uint64(0), cleared.Generation)
	assert.Equal(t, "connectionError", cleared.Reason)
}

func Test_EventClient_HeartbeatOverride_ReportsUnreachableEndpoints(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	engine, db := GivenSQLiteBackendWithDB(t)

	opts := docstore.Options{
		Hosts:    []string{"localhost:27830"},
		Database: TestDatabaseName,
		Backend:  engine,
	}

	ec, err := clienttest.NewEventClientWithAdditionalOptions(ctxWithTimeout, &opts, 25*time.Millisecond, nil)
	assert.NoError(t, err, "error in arranging test data")

	t.Cleanup(func() {
		_ = ec.Disconnect(context.Background())
	})

	// arrange - kill the backend underneath the connected client
	err = db.Close()
	assert.NoError(t, err, "error in arranging test data")

	// assert
	assert.Eventually(t, func() bool {
		return ec.PoolClearedEvents.Len() > 0
	}, 3*time.Second, 10*time.Millisecond, "the heartbeat should detect the dead backend")

	cleared, ok := ec.PoolClearedEvents.PopFront()
	assert.True(t, ok)
	assert.Equal(t, "heartbeatFailure", cleared.Reason)
	assert.Equal(t, "localhost:27830", cleared.Address)
	assert.Equal(t, uint64(0), cleared.Generation)
}

func Test_EventClient_ShardedTopology_TruncatesToASingleRouterByDefault(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := BaseTestOptions(t)

	// act
	ec, err := clienttest.NewEventClientWithAdditionalOptions(ctxWithTimeout, &opts, 0, nil)

	// assert
	assert.NoError(t, err)

	t.Cleanup(func() {
		_ = ec.Disconnect(context.Background())
	})

	assert.Equal(t, []string{"localhost:27830"}, ec.Hosts())
}

func Test_EventClient_MultipleRouters_KeepAllEndpoints(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := BaseTestOptions(t)
	useMultipleRouters := true

	// act
	ec, err := clienttest.NewEventClientWithAdditionalOptions(ctxWithTimeout, &opts, 0, &useMultipleRouters)

	// assert
	assert.NoError(t, err)

	t.Cleanup(func() {
		_ = ec.Disconnect(context.Background())
	})

	assert.Equal(t, []string{"localhost:27830", "localhost:27831"}, ec.Hosts())
}

func Test_NewEventClientFromURI_RequiresTwoEndpointsForMultipleRouters(t *testing.T) {
	// setup
	useMultipleRouters := true

	// act & assert - the endpoint check fires before anything connects
	assert.PanicsWithError(t,
		"not enough endpoints for a multi-router client: need at least 2, have 1",
		func() {
			_, _ = clienttest.NewEventClientFromURI(context.Background(),
				"docstore://localhost:27830/harness_test?topology=sharded", &useMultipleRouters)
		})
}

func Test_NewEventClientFromURI_TruncatesToASingleRouterWhenRequested(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clienttest.SetBaseOptions(BaseTestOptions(t))

	useMultipleRouters := false

	// act
	ec, err := clienttest.NewEventClientFromURI(ctxWithTimeout,
		"docstore://localhost:27830,localhost:27831/harness_test?topology=sharded", &useMultipleRouters)

	// assert
	assert.NoError(t, err)

	t.Cleanup(func() {
		_ = ec.Disconnect(context.Background())
	})

	assert.Equal(t, []string{"localhost:27830"}, ec.Hosts())
	assert.Equal(t, "sharded", ec.Topology())
}
