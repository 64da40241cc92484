// ABOUTME: De-duplicated registry of currently advertising remote peers
// ABOUTME: Backs the endpoint's routing-table snapshot and expiry detection
package discovery

import (
	"sync"
	"time"
)

// RemoteInfo is one entry in the routing-table snapshot.
type RemoteInfo struct {
	Peer     PeerIdentity
	Label    string
	HasLabel bool
	Addr     string
	LastSeen time.Time
}

// registry tracks the last observation of each remote peer. The endpoint
// owns de-duplication; the event stream stays raw.
type registry struct {
	mu    sync.RWMutex
	peers map[PeerIdentity]RemoteInfo
}

func newRegistry() *registry {
	return &registry{peers: make(map[PeerIdentity]RemoteInfo)}
}

// observe records or refreshes a peer.
func (r *registry) observe(info RemoteInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[info.Peer] = info
}

// expire removes peers not seen within ttl of now and returns them.
func (r *registry) expire(now time.Time, ttl time.Duration) []PeerIdentity {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []PeerIdentity
	for id, info := range r.peers {
		if now.Sub(info.LastSeen) > ttl {
			delete(r.peers, id)
			expired = append(expired, id)
		}
	}
	return expired
}

// snapshot returns a point-in-time copy of the known peers, unordered.
func (r *registry) snapshot() []RemoteInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RemoteInfo, 0, len(r.peers))
	for _, info := range r.peers {
		out = append(out, info)
	}
	return out
}
