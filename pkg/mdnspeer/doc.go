// ABOUTME: High-level mdns-peer library API
// ABOUTME: Embeddable start/stop control surface over the peer-presence engine
// Package mdnspeer is the embeddable entry point of the peer-presence
// service. A host application with no concurrency primitives of its own
// calls Start and Stop; everything else runs detached on this process's
// shared state.
//
// Start is fire-and-forget: it validates the identifier, launches a peer
// session in the background, and returns immediately. Stop broadcasts a
// shutdown signal to every session started so far. Both are safe to call
// repeatedly and from foreign callers.
//
// Example:
//
//	ok := mdnspeer.Start("alice")
//	// ... peers appear in the logs as they are discovered ...
//	mdnspeer.Stop()
//
// Hosts that need isolated state (tests, mostly) construct their own
// ProcessState and Controller instead of using the package-level default.
package mdnspeer
