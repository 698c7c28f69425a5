package docstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docstorekit/docstore-go/docstore/event"
	"github.com/docstorekit/docstore-go/docstore/sqlengine"
)

const (
	logMsgClientConnected    = "client connected"
	logMsgClientDisconnected = "client disconnected"
	logMsgCommandExecuted    = "command executed"
	logMsgCommandFailed      = "command failed"
	logMsgHeartbeatFailed    = "endpoint heartbeat failed"
	logMsgPoolCleared        = "connection pool cleared"
	logAttrCommand           = "command"
	logAttrDatabase          = "database"
	logAttrHost              = "host"
	logAttrRequestID         = "request_id"
	logAttrDurationMS        = "duration_ms"
	logAttrError             = "error"
	logAttrGeneration        = "generation"
	logAttrReason            = "reason"

	reasonConnectionError  = "connectionError"
	reasonHeartbeatFailure = "heartbeatFailure"
)

// Client is a document-store client with built-in command monitoring.
//
// Commands are routed round-robin over the configured endpoints; every
// execution emits a started event and exactly one terminal event through the
// configured CommandMonitor, correlated by a request id drawn from an atomic
// counter. Pool invalidation is reported through the PoolMonitor.
type Client struct {
	id          uuid.UUID
	opts        Options
	backend     Backend
	ownsBackend bool
	pools       map[string]*endpointPool
	failPoints  *failPointRegistry
	cmdMonitor  *event.CommandMonitor
	poolMonitor *event.PoolMonitor
	logger      Logger

	requestIDs    atomic.Int64
	nextEndpoint  atomic.Uint64
	connected     atomic.Bool
	stopHeartbeat chan struct{}
	heartbeatDone chan struct{}
}

// NewClient builds a Client from the given options without connecting it.
// Endpoint addresses given without a port get DefaultPort appended.
func NewClient(opts Options) (*Client, error) {
	opts = opts.withDefaults()

	if len(opts.Hosts) == 0 {
		return nil, ErrNoHostsConfigured
	}

	opts.Hosts = normalizeHosts(opts.Hosts)

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	pools := make(map[string]*endpointPool, len(opts.Hosts))
	for _, host := range opts.Hosts {
		pools[host] = newEndpointPool(host)
	}

	return &Client{
		id:          id,
		opts:        opts,
		backend:     opts.Backend,
		pools:       pools,
		failPoints:  newFailPointRegistry(),
		cmdMonitor:  opts.CommandMonitor,
		poolMonitor: opts.PoolMonitor,
		logger:      opts.Logger,
	}, nil
}

// normalizeHosts appends DefaultPort to addresses given without a port.
func normalizeHosts(hosts []string) []string {
	normalized := make([]string, 0, len(hosts))

	for _, host := range hosts {
		if !containsPort(host) {
			host = host + ":" + DefaultPort
		}

		normalized = append(normalized, host)
	}

	return normalized
}

func containsPort(host string) bool {
	for i := len(host) - 1; i >= 0; i-- {
		if host[i] == ':' {
			return true
		}
	}

	return false
}

// Connect prepares the backend schema, performs the hello handshake against
// every endpoint, and starts the heartbeat loop. Connecting an already
// connected client is a no-op.
//
// The handshake commands are monitored like any other command, so a fresh
// client's monitor sees one started and one terminal event per endpoint.
func (c *Client) Connect(ctx context.Context) error {
	if c.connected.Swap(true) {
		return nil
	}

	if err := c.connectBackend(ctx); err != nil {
		c.connected.Store(false)
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
	defer cancel()

	if err := c.backend.EnsureSchema(connectCtx); err != nil {
		c.rollbackConnect()
		return errors.Join(ErrNoBackendAvailable, err)
	}

	for _, host := range c.opts.Hosts {
		cmd := Command{Name: CommandHello, Database: c.opts.Database}
		if _, err := c.runCommandOnHost(connectCtx, host, cmd); err != nil {
			c.rollbackConnect()
			return err
		}
	}

	c.stopHeartbeat = make(chan struct{})
	c.heartbeatDone = make(chan struct{})
	go c.heartbeatLoop()

	c.logOperation(logMsgClientConnected, logAttrHost, fmt.Sprintf("%v", c.opts.Hosts))

	return nil
}

// connectBackend builds the default Postgres backend when none was injected.
func (c *Client) connectBackend(ctx context.Context) error {
	if c.backend != nil {
		return nil
	}

	pool, err := pgxpool.New(ctx, c.postgresDSN())
	if err != nil {
		return errors.Join(ErrNoBackendAvailable, err)
	}

	engine, err := sqlengine.NewEngineFromPGXPool(pool)
	if err != nil {
		pool.Close()
		return errors.Join(ErrNoBackendAvailable, err)
	}

	c.backend = engine
	c.ownsBackend = true

	return nil
}

// postgresDSN renders the first endpoint as a Postgres connection string for
// the default backend.
func (c *Client) postgresDSN() string {
	if c.opts.Username != "" {
		return fmt.Sprintf("postgres://%s:%s@%s/%s", c.opts.Username, c.opts.Password, c.opts.Hosts[0], c.opts.Database)
	}

	return fmt.Sprintf("postgres://%s/%s", c.opts.Hosts[0], c.opts.Database)
}

func (c *Client) rollbackConnect() {
	c.connected.Store(false)

	if c.ownsBackend {
		_ = c.backend.Close() // best effort cleanup
		c.backend = nil
		c.ownsBackend = false
	}
}

// Disconnect stops the heartbeat loop and releases the backend when the client
// owns it. Disconnecting an already disconnected client is a no-op.
func (c *Client) Disconnect(_ context.Context) error {
	if !c.connected.Swap(false) {
		return nil
	}

	close(c.stopHeartbeat)
	<-c.heartbeatDone

	c.logOperation(logMsgClientDisconnected)

	if c.ownsBackend {
		if err := c.backend.Close(); err != nil {
			return errors.Join(ErrNoBackendAvailable, err)
		}
	}

	return nil
}

// RunCommand executes one command against the deployment. An empty database
// argument falls back to the command's database, then to the client default.
func (c *Client) RunCommand(ctx context.Context, database string, cmd Command) (Document, error) {
	if !c.connected.Load() {
		return nil, ErrClientDisconnected
	}

	if database != "" {
		cmd.Database = database
	}

	if cmd.Database == "" {
		cmd.Database = c.opts.Database
	}

	return c.runCommandOnHost(ctx, c.selectEndpoint(), cmd)
}

// selectEndpoint routes commands round-robin over the endpoint list.
func (c *Client) selectEndpoint() string {
	next := c.nextEndpoint.Add(1) - 1
	return c.opts.Hosts[next%uint64(len(c.opts.Hosts))]
}

// runCommandOnHost is the monitored execution path every operation funnels
// through: draw a request id, emit the started event, execute, emit the
// terminal event.
func (c *Client) runCommandOnHost(ctx context.Context, host string, cmd Command) (Document, error) {
	requestID := c.requestIDs.Add(1)

	wireJSON, marshalErr := MarshalDocument(cmd.wireDocument())
	if marshalErr != nil {
		return nil, errors.Join(ErrCommandFailed, marshalErr)
	}

	c.emitStarted(ctx, cmd, requestID, host, wireJSON)

	start := time.Now()
	reply, clearReason, execErr := c.executeCommand(ctx, host, cmd)
	duration := time.Since(start)

	if execErr == nil {
		var replyJSON []byte
		replyJSON, execErr = MarshalDocument(reply)
		if execErr == nil {
			c.emitSucceeded(ctx, cmd, requestID, host, replyJSON, duration)
			c.logOperation(logMsgCommandExecuted,
				logAttrCommand, cmd.Name,
				logAttrDatabase, cmd.Database,
				logAttrRequestID, requestID,
				logAttrDurationMS, toMilliseconds(duration))

			return reply, nil
		}
	}

	c.emitFailed(ctx, cmd, requestID, host, execErr, duration)
	c.logError(logMsgCommandFailed, execErr, logAttrCommand, cmd.Name, logAttrRequestID, requestID)

	if clearReason != "" {
		c.clearPool(host, clearReason)
	}

	return nil, errors.Join(ErrCommandFailed, execErr)
}

// executeCommand runs a command after the fail point gate. It returns the
// reply, a non-empty pool clear reason when the endpoint's pool must be
// invalidated, and the execution error.
func (c *Client) executeCommand(ctx context.Context, host string, cmd Command) (Document, string, error) {
	if cmd.Name != CommandConfigureFailPoint {
		if fpErr, closeConnection := c.failPoints.intercept(cmd.Name); fpErr != nil {
			reason := ""
			if closeConnection {
				reason = reasonConnectionError
			}

			return nil, reason, fpErr
		}
	}

	switch cmd.Name {
	case CommandInsert:
		docs, err := documentsFromBody(cmd.Body)
		if err != nil {
			return nil, "", err
		}

		inserted, err := c.backend.InsertDocuments(ctx, cmd.Database, cmd.Collection, docs)
		if err != nil {
			return nil, "", err
		}

		return Document{"ok": 1, "n": inserted}, "", nil

	case CommandFind:
		docs, err := c.backend.FindDocuments(ctx, cmd.Database, cmd.Collection, filterFromBody(cmd.Body))
		if err != nil {
			return nil, "", err
		}

		return Document{"ok": 1, "n": int64(len(docs)), "documents": docs}, "", nil

	case CommandDelete:
		deleted, err := c.backend.DeleteDocuments(ctx, cmd.Database, cmd.Collection, filterFromBody(cmd.Body))
		if err != nil {
			return nil, "", err
		}

		return Document{"ok": 1, "n": deleted}, "", nil

	case CommandDrop:
		if err := c.backend.DropCollection(ctx, cmd.Database, cmd.Collection); err != nil {
			return nil, "", err
		}

		return Document{"ok": 1}, "", nil

	case CommandPing:
		if err := c.backend.Ping(ctx); err != nil {
			return nil, reasonConnectionError, err
		}

		return Document{"ok": 1}, "", nil

	case CommandHello:
		if err := c.backend.Ping(ctx); err != nil {
			return nil, reasonConnectionError, err
		}

		return Document{"ok": 1, "host": host, "topology": c.opts.Topology.String()}, "", nil

	case CommandConfigureFailPoint:
		if err := c.failPoints.configure(cmd.Body); err != nil {
			return nil, "", err
		}

		return Document{"ok": 1}, "", nil

	default:
		return nil, "", errors.Join(ErrUnknownCommand, fmt.Errorf("command %q", cmd.Name))
	}
}

// Ping verifies the deployment is reachable, as a monitored command.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.RunCommand(ctx, "", Command{Name: CommandPing})
	return err
}

// ID returns the unique id of this client instance.
func (c *Client) ID() uuid.UUID {
	return c.id
}

// Topology returns the deployment shape the client was configured with.
func (c *Client) Topology() TopologyKind {
	return c.opts.Topology
}

// Hosts returns a copy of the endpoint list commands are routed over.
func (c *Client) Hosts() []string {
	return append([]string(nil), c.opts.Hosts...)
}

func (c *Client) emitStarted(ctx context.Context, cmd Command, requestID int64, host string, wireJSON []byte) {
	if c.cmdMonitor == nil || c.cmdMonitor.Started == nil {
		return
	}

	c.cmdMonitor.Started(ctx, &event.CommandStartedEvent{
		Command:      wireJSON,
		DatabaseName: cmd.Database,
		Name:         cmd.Name,
		ID:           requestID,
		ConnectionID: host,
	})
}

func (c *Client) emitSucceeded(ctx context.Context, cmd Command, requestID int64, host string, replyJSON []byte, duration time.Duration) {
	if c.cmdMonitor == nil || c.cmdMonitor.Succeeded == nil {
		return
	}

	c.cmdMonitor.Succeeded(ctx, &event.CommandSucceededEvent{
		Duration:     duration,
		Reply:        replyJSON,
		Name:         cmd.Name,
		ID:           requestID,
		ConnectionID: host,
	})
}

func (c *Client) emitFailed(ctx context.Context, cmd Command, requestID int64, host string, execErr error, duration time.Duration) {
	if c.cmdMonitor == nil || c.cmdMonitor.Failed == nil {
		return
	}

	c.cmdMonitor.Failed(ctx, &event.CommandFailedEvent{
		Duration:     duration,
		Name:         cmd.Name,
		Failure:      execErr.Error(),
		ID:           requestID,
		ConnectionID: host,
	})
}

// documentsFromBody reads the documents argument of an insert command. Bodies
// built in Go carry []Document; bodies round-tripped through JSON carry []any.
func documentsFromBody(body Document) ([]Document, error) {
	switch docs := body["documents"].(type) {
	case []Document:
		return docs, nil
	case []any:
		converted := make([]Document, 0, len(docs))
		for _, doc := range docs {
			asDoc, ok := doc.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("insert documents must be objects")
			}
			converted = append(converted, asDoc)
		}

		return converted, nil
	default:
		return nil, fmt.Errorf("insert requires a documents array")
	}
}

// filterFromBody reads the optional filter argument of find and delete commands.
func filterFromBody(body Document) Document {
	filter, _ := body["filter"].(map[string]any)
	return filter
}

// logOperation logs operational information at info level if the logger is configured.
func (c *Client) logOperation(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

// logError logs error information at the error level if the logger is configured.
func (c *Client) logError(msg string, err error, args ...any) {
	if c.logger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		c.logger.Error(msg, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
