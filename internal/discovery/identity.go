// ABOUTME: Opaque peer identity assigned to a local endpoint
// ABOUTME: Base58-encoded random node IDs, immutable once created
package discovery

import (
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
)

// PeerIdentity is the opaque network identifier of an endpoint. Identities
// compare by value and never change after creation.
type PeerIdentity string

// NewIdentity generates a fresh random node identity.
func NewIdentity() (PeerIdentity, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate node identity: %w", err)
	}
	return PeerIdentity(base58.Encode(raw)), nil
}

// Short returns a truncated form suitable for log lines.
func (p PeerIdentity) Short() string {
	if len(p) <= 8 {
		return string(p)
	}
	return string(p[:8])
}

func (p PeerIdentity) String() string {
	return string(p)
}
