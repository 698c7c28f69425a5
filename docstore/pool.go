package docstore

import (
	"sync/atomic"

	"github.com/docstorekit/docstore-go/docstore/event"
)

// endpointPool tracks the connection pool state the client keeps per endpoint.
// The generation counter invalidates handed-out connections: a clear bumps the
// generation, and connections from older generations must not be reused.
type endpointPool struct {
	address    string
	generation atomic.Uint64
}

func newEndpointPool(address string) *endpointPool {
	return &endpointPool{address: address}
}

// clear invalidates the current generation and returns it.
func (p *endpointPool) clear() uint64 {
	return p.generation.Add(1) - 1
}

// clearPool invalidates the endpoint's pool, notifies the pool monitor, and
// lets the backend discard idle connections when it supports that.
func (c *Client) clearPool(address string, reason string) {
	pool, found := c.pools[address]
	if !found {
		return
	}

	cleared := pool.clear()

	c.logOperation(logMsgPoolCleared, logAttrHost, address, logAttrGeneration, cleared, logAttrReason, reason)

	if resetter, ok := c.backend.(Resetter); ok {
		resetter.Reset()
	}

	if c.poolMonitor != nil && c.poolMonitor.Cleared != nil {
		c.poolMonitor.Cleared(&event.PoolClearedEvent{
			Address:    address,
			Generation: cleared,
			Reason:     reason,
		})
	}
}
