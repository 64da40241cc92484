// ABOUTME: Discovery event stream types
// ABOUTME: Tagged events for peer discovery, expiry, and transient errors
package discovery

// EventKind tags a discovery event.
type EventKind int

const (
	// EventDiscovered reports an observation of a peer advertisement. The
	// stream is not de-duplicated: every observation produces an event,
	// including observations of the local endpoint itself.
	EventDiscovered EventKind = iota

	// EventExpired reports a peer that stopped advertising.
	EventExpired

	// EventError reports a transient browse failure. The stream continues
	// after an error event.
	EventError
)

// Event is one emission on the discovery stream.
type Event struct {
	Kind     EventKind
	Peer     PeerIdentity
	Label    string
	HasLabel bool
	Source   string
	Err      error
}
