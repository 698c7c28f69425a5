package docstore

import (
	"time"

	"github.com/docstorekit/docstore-go/docstore/event"
)

const (
	// DefaultPort is appended to endpoint addresses given without a port.
	DefaultPort = "27830"
	// DefaultHeartbeatInterval is the pause between endpoint health checks.
	DefaultHeartbeatInterval = 10 * time.Second
	// DefaultConnectTimeout bounds the initial handshake per endpoint.
	DefaultConnectTimeout = 30 * time.Second

	defaultDatabaseName = "test"
)

// TopologyKind describes the shape of the backing deployment as seen by the client.
type TopologyKind int

const (
	// TopologySingle is a deployment with one standalone node.
	TopologySingle TopologyKind = iota + 1
	// TopologyReplicaSet is a deployment of replicated nodes with one primary.
	TopologyReplicaSet
	// TopologySharded is a deployment reached through multiple routing endpoints.
	TopologySharded
)

// String returns the topology classification literal.
func (k TopologyKind) String() string {
	switch k {
	case TopologyReplicaSet:
		return "replicaset"
	case TopologySharded:
		return "sharded"
	default:
		return "single"
	}
}

// Options configures a Client.
//
// The zero value of every field means "unset"; Merge fills unset fields from a
// defaults object, so partially populated Options can be layered over ambient
// configuration.
type Options struct {
	// Hosts is the endpoint list (host:port) commands are routed to.
	Hosts []string
	// Database is the default database name for operations.
	Database string
	// Username and Password authenticate against the deployment.
	Username string
	Password string
	// Topology declares the deployment shape.
	Topology TopologyKind
	// HeartbeatInterval is the pause between endpoint health checks.
	// Zero selects DefaultHeartbeatInterval.
	HeartbeatInterval time.Duration
	// ConnectTimeout bounds the per-endpoint handshake during Connect.
	// Zero selects DefaultConnectTimeout.
	ConnectTimeout time.Duration
	// Backend executes commands. When nil, the client connects the default
	// Postgres backend using the first endpoint and the credentials above.
	Backend Backend
	// CommandMonitor receives command lifecycle events.
	CommandMonitor *event.CommandMonitor
	// PoolMonitor receives pool lifecycle events.
	PoolMonitor *event.PoolMonitor
	// Logger receives operational log messages. Nil disables logging.
	Logger Logger
}

// Merge returns a copy of o with every unset field filled from defaults.
//
// A non-empty endpoint list in o takes precedence over the defaults' list;
// all other set fields in o win likewise.
func (o Options) Merge(defaults Options) Options {
	merged := o

	if len(merged.Hosts) == 0 {
		merged.Hosts = append([]string(nil), defaults.Hosts...)
	}

	if merged.Database == "" {
		merged.Database = defaults.Database
	}

	if merged.Username == "" {
		merged.Username = defaults.Username
	}

	if merged.Password == "" {
		merged.Password = defaults.Password
	}

	if merged.Topology == 0 {
		merged.Topology = defaults.Topology
	}

	if merged.HeartbeatInterval == 0 {
		merged.HeartbeatInterval = defaults.HeartbeatInterval
	}

	if merged.ConnectTimeout == 0 {
		merged.ConnectTimeout = defaults.ConnectTimeout
	}

	if merged.Backend == nil {
		merged.Backend = defaults.Backend
	}

	if merged.CommandMonitor == nil {
		merged.CommandMonitor = defaults.CommandMonitor
	}

	if merged.PoolMonitor == nil {
		merged.PoolMonitor = defaults.PoolMonitor
	}

	if merged.Logger == nil {
		merged.Logger = defaults.Logger
	}

	return merged
}

// withDefaults fills the remaining zero fields with package defaults.
func (o Options) withDefaults() Options {
	filled := o

	if filled.Database == "" {
		filled.Database = defaultDatabaseName
	}

	if filled.Topology == 0 {
		filled.Topology = TopologySingle
	}

	if filled.HeartbeatInterval == 0 {
		filled.HeartbeatInterval = DefaultHeartbeatInterval
	}

	if filled.ConnectTimeout == 0 {
		filled.ConnectTimeout = DefaultConnectTimeout
	}

	return filled
}
