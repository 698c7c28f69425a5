// Package event defines the monitoring events a docstore client emits and the
// callback sets used to subscribe to them.
//
// Command execution produces a CommandStartedEvent followed by exactly one
// terminal event, CommandSucceededEvent or CommandFailedEvent, sharing the
// started event's request id and command name. Pool lifecycle produces
// PoolClearedEvent when an endpoint's connection pool is invalidated.
//
// The three command variants form the sealed CommandEvent union with an
// explicit Kind discriminant, so consumers can buffer heterogeneous command
// events in one ordered stream and narrow variants with type assertions.
package event
