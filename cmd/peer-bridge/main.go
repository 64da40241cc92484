// ABOUTME: Foreign-function bridge for embedding in mobile and desktop hosts
// ABOUTME: Exposes peer_start/peer_stop plus the legacy bob_* entry points
//
// Build with: go build -buildmode=c-shared -o libmdnspeer.so ./cmd/peer-bridge
package main

/*
#include <stdbool.h>
*/
import "C"

import (
	"github.com/jamiepine/mdns-peer-go/internal/logging"
	"github.com/jamiepine/mdns-peer-go/pkg/mdnspeer"
)

var logger = logging.Logger("mdnspeer")

// peer_start starts a session labeled by identifier. It returns false for a
// null pointer or invalid text, true otherwise; later session failures are
// observable only through logs.
//
//export peer_start
func peer_start(identifier *C.char) C.bool {
	if identifier == nil {
		logging.Init()
		logger.Warn("peer_start called with null identifier")
		return C.bool(false)
	}

	// C.GoString copies the caller's buffer; the session owns the durable
	// copy for its lifetime, the caller keeps its own memory.
	return C.bool(mdnspeer.Start(C.GoString(identifier)))
}

// peer_stop signals every active session to shut down.
//
//export peer_stop
func peer_stop() {
	mdnspeer.Stop()
}

// bob_start is the legacy entry point, equivalent to peer_start("bob").
//
//export bob_start
func bob_start() C.bool {
	return C.bool(mdnspeer.Start(mdnspeer.DefaultIdentifier))
}

// bob_stop is the legacy name for peer_stop.
//
//export bob_stop
func bob_stop() {
	peer_stop()
}

func main() {}
