// ABOUTME: Discovery-event consumer with self-filtering
// ABOUTME: Logs peer presence and expiry until the stream ends or shutdown fires
package app

import (
	"context"
	"sync/atomic"

	"github.com/jamiepine/mdns-peer-go/internal/discovery"
	"github.com/jamiepine/mdns-peer-go/internal/logging"
	"github.com/jamiepine/mdns-peer-go/internal/shutdown"
)

var consumerLogger = logging.Logger("mdnspeer")

// Consumer states.
const (
	consumerRunning int32 = iota
	consumerStopped
)

// Consumer drains a discovery stream, discarding self-observations and
// logging everything else. It keeps no peer state of its own: repeated
// observations of the same peer log repeatedly, and de-duplication stays
// with the endpoint's registry.
type Consumer struct {
	events    <-chan discovery.Event
	self      discovery.PeerIdentity
	sub       *shutdown.Subscription
	sessionID string
	observer  func(discovery.Event)
	state     atomic.Int32
}

// NewConsumer creates a consumer for one session's stream. observer may be
// nil; when set it receives every non-self event the consumer handles.
func NewConsumer(events <-chan discovery.Event, self discovery.PeerIdentity, sub *shutdown.Subscription, sessionID string, observer func(discovery.Event)) *Consumer {
	return &Consumer{
		events:    events,
		self:      self,
		sub:       sub,
		sessionID: sessionID,
		observer:  observer,
	}
}

// Stopped reports whether the consumer reached its terminal state.
func (c *Consumer) Stopped() bool {
	return c.state.Load() == consumerStopped
}

// Run consumes until the stream closes, the shutdown signal fires, or ctx is
// canceled, whichever is ready first. An event already buffered when shutdown
// arrives may still be processed once; that race is deliberate.
func (c *Consumer) Run(ctx context.Context) {
	defer c.state.Store(consumerStopped)
	defer c.sub.Cancel()

	for {
		select {
		case ev, ok := <-c.events:
			if !ok {
				// Endpoint closed externally; a normal stop.
				consumerLogger.Debug("discovery stream ended", "session", c.sessionID)
				return
			}
			c.handle(ev)
		case <-c.sub.Done():
			consumerLogger.Info("discovery task shutting down", "session", c.sessionID)
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) handle(ev discovery.Event) {
	switch ev.Kind {
	case discovery.EventDiscovered:
		if ev.Peer == c.self {
			// Self-discovery is not a peer.
			return
		}
		if ev.HasLabel {
			consumerLogger.Info("peer discovered",
				"session", c.sessionID,
				"node_id", ev.Peer.String(),
				"label", ev.Label,
				"source", ev.Source)
		} else {
			consumerLogger.Info("peer discovered without label (legacy peer or different app)",
				"session", c.sessionID,
				"node_id", ev.Peer.String(),
				"source", ev.Source)
		}
		if c.observer != nil {
			c.observer(ev)
		}
	case discovery.EventExpired:
		consumerLogger.Info("peer expired",
			"session", c.sessionID, "node_id", ev.Peer.String())
		if c.observer != nil {
			c.observer(ev)
		}
	case discovery.EventError:
		// Transient; keep consuming.
		consumerLogger.Warn("discovery error",
			"session", c.sessionID, "error", ev.Err)
	}
}
