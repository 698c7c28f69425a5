package docstore

import (
	"context"
	"time"
)

// heartbeatLoop checks endpoint health once per heartbeat interval until
// Disconnect stops it. Health checks go straight to the backend: they are not
// commands, so they bypass the command monitor and the fail point registry.
func (c *Client) heartbeatLoop() {
	defer close(c.heartbeatDone)

	ticker := time.NewTicker(c.opts.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopHeartbeat:
			return
		case <-ticker.C:
			c.checkEndpoints()
		}
	}
}

// checkEndpoints pings the backend once per endpoint and clears the pool of
// every endpoint whose check fails.
func (c *Client) checkEndpoints() {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.HeartbeatInterval)
	defer cancel()

	for _, host := range c.opts.Hosts {
		if err := c.backend.Ping(ctx); err != nil {
			c.logError(logMsgHeartbeatFailed, err, logAttrHost, host)
			c.clearPool(host, reasonHeartbeatFailure)
		}
	}
}
