package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/docstorekit/docstore-go/docstore/event"
)

func Test_Options_Merge_FillsUnsetFieldsFromDefaults(t *testing.T) {
	commandMonitor := &event.CommandMonitor{}
	poolMonitor := &event.PoolMonitor{}

	defaults := Options{
		Hosts:             []string{"node1:27830", "node2:27831"},
		Database:          "appdata",
		Username:          "alice",
		Password:          "s3cr3t",
		Topology:          TopologySharded,
		HeartbeatInterval: 250 * time.Millisecond,
		ConnectTimeout:    2 * time.Second,
		CommandMonitor:    commandMonitor,
		PoolMonitor:       poolMonitor,
	}

	merged := Options{}.Merge(defaults)

	assert.Equal(t, defaults.Hosts, merged.Hosts)
	assert.Equal(t, "appdata", merged.Database)
	assert.Equal(t, "alice", merged.Username)
	assert.Equal(t, "s3cr3t", merged.Password)
	assert.Equal(t, TopologySharded, merged.Topology)
	assert.Equal(t, 250*time.Millisecond, merged.HeartbeatInterval)
	assert.Equal(t, 2*time.Second, merged.ConnectTimeout)
	assert.Same(t, commandMonitor, merged.CommandMonitor)
	assert.Same(t, poolMonitor, merged.PoolMonitor)
}

func Test_Options_Merge_KeepsSetFields(t *testing.T) {
	ownMonitor := &event.CommandMonitor{}

	opts := Options{
		Hosts:             []string{"mine:27830"},
		Database:          "mine",
		Topology:          TopologySingle,
		HeartbeatInterval: time.Hour,
		CommandMonitor:    ownMonitor,
	}

	defaults := Options{
		Hosts:             []string{"theirs:27830"},
		Database:          "theirs",
		Topology:          TopologySharded,
		HeartbeatInterval: time.Second,
		CommandMonitor:    &event.CommandMonitor{},
	}

	merged := opts.Merge(defaults)

	assert.Equal(t, []string{"mine:27830"}, merged.Hosts)
	assert.Equal(t, "mine", merged.Database)
	assert.Equal(t, TopologySingle, merged.Topology)
	assert.Equal(t, time.Hour, merged.HeartbeatInterval)
	assert.Same(t, ownMonitor, merged.CommandMonitor)
}

func Test_Options_Merge_CopiesTheDefaultHostList(t *testing.T) {
	defaults := Options{Hosts: []string{"node1:27830", "node2:27831"}}

	merged := Options{}.Merge(defaults)
	defaults.Hosts[0] = "changed:27830"

	assert.Equal(t, "node1:27830", merged.Hosts[0], "merged host list should not alias the defaults")
}

func Test_Options_withDefaults_FillsPackageDefaults(t *testing.T) {
	filled := Options{}.withDefaults()

	assert.Equal(t, "test", filled.Database)
	assert.Equal(t, TopologySingle, filled.Topology)
	assert.Equal(t, DefaultHeartbeatInterval, filled.HeartbeatInterval)
	assert.Equal(t, DefaultConnectTimeout, filled.ConnectTimeout)
}

func Test_Options_withDefaults_KeepsSetFields(t *testing.T) {
	opts := Options{
		Database:          "appdata",
		Topology:          TopologySharded,
		HeartbeatInterval: time.Minute,
		ConnectTimeout:    time.Second,
	}

	filled := opts.withDefaults()

	assert.Equal(t, "appdata", filled.Database)
	assert.Equal(t, TopologySharded, filled.Topology)
	assert.Equal(t, time.Minute, filled.HeartbeatInterval)
	assert.Equal(t, time.Second, filled.ConnectTimeout)
}
