// ABOUTME: Periodic summary of the endpoint's routing table
// ABOUTME: Warns while no peers are known, reports the count otherwise
package app

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/jamiepine/mdns-peer-go/internal/discovery"
	"github.com/jamiepine/mdns-peer-go/internal/logging"
	"github.com/jamiepine/mdns-peer-go/internal/shutdown"
)

var reporterLogger = logging.Logger("mdnspeer/summary")

// DefaultSummaryInterval is how often the reporter snapshots the routing table.
const DefaultSummaryInterval = 5 * time.Second

// peerLister is the one endpoint capability the reporter needs.
type peerLister interface {
	RemotePeers() []discovery.RemoteInfo
}

// Reporter periodically logs how many peers the endpoint currently knows.
type Reporter struct {
	peers     peerLister
	clk       clock.Clock
	interval  time.Duration
	sub       *shutdown.Subscription
	sessionID string

	// onSummary, when set, receives each tick's count.
	onSummary func(count int)
}

// NewReporter creates a reporter on the given clock. Tests pass a mock clock.
func NewReporter(peers peerLister, clk clock.Clock, interval time.Duration, sub *shutdown.Subscription, sessionID string) *Reporter {
	if interval <= 0 {
		interval = DefaultSummaryInterval
	}
	return &Reporter{
		peers:     peers,
		clk:       clk,
		interval:  interval,
		sub:       sub,
		sessionID: sessionID,
	}
}

// Run emits one summary per tick until shutdown fires or ctx is canceled. A
// tick in flight when the signal arrives is dropped; the races are resolved
// by whichever case is ready first.
func (r *Reporter) Run(ctx context.Context) {
	defer r.sub.Cancel()

	ticker := r.clk.Ticker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			count := len(r.peers.RemotePeers())
			if count == 0 {
				reporterLogger.Warn("no peers discovered yet", "session", r.sessionID)
			} else {
				reporterLogger.Info("total peers in routing table",
					"session", r.sessionID, "count", count)
			}
			if r.onSummary != nil {
				r.onSummary(count)
			}
		case <-r.sub.Done():
			reporterLogger.Debug("summary task shutting down", "session", r.sessionID)
			return
		case <-ctx.Done():
			return
		}
	}
}
