// ABOUTME: One peer's lifetime from endpoint bind to endpoint close
// ABOUTME: Spawns the discovery consumer and summary reporter, waits for shutdown
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/jamiepine/mdns-peer-go/internal/discovery"
	"github.com/jamiepine/mdns-peer-go/internal/logging"
	"github.com/jamiepine/mdns-peer-go/internal/shutdown"
)

var sessionLogger = logging.Logger("mdnspeer")

// Identifier validation errors.
var (
	ErrEmptyIdentifier   = errors.New("identifier is empty")
	ErrIdentifierTooLong = errors.New("identifier exceeds 63 bytes")
	ErrIdentifierInvalid = errors.New("identifier contains control characters or invalid text")
)

// maxLabelBytes is the DNS TXT limit the discovery label must fit in.
const maxLabelBytes = 63

// ParseLabel turns a caller-supplied identifier into the discovery label the
// endpoint advertises. The identifier must be non-empty printable text no
// longer than 63 bytes.
func ParseLabel(identifier string) (string, error) {
	if !utf8.ValidString(identifier) {
		return "", ErrIdentifierInvalid
	}
	label := strings.TrimSpace(identifier)
	if label == "" {
		return "", ErrEmptyIdentifier
	}
	if len(label) > maxLabelBytes {
		return "", ErrIdentifierTooLong
	}
	for _, r := range label {
		if r < 0x20 || r == 0x7f {
			return "", ErrIdentifierInvalid
		}
	}
	return label, nil
}

// Hooks let an embedder observe a session's progress without touching its
// control flow. All fields are optional; callbacks run on session goroutines
// and must not block.
type Hooks struct {
	// OnBound fires once the endpoint is bound, with its node identity.
	OnBound func(nodeID discovery.PeerIdentity)

	// OnEvent fires for every non-self discovery event.
	OnEvent func(ev discovery.Event)

	// OnSummary fires with each periodic routing-table count.
	OnSummary func(count int)
}

// endpointHandle is the slice of the discovery endpoint a session drives.
type endpointHandle interface {
	NodeID() discovery.PeerIdentity
	Events() <-chan discovery.Event
	RemotePeers() []discovery.RemoteInfo
	Close() error
}

// Session runs a single peer: bind, observe, summarize, close. Failures
// abort the session and surface only through logs; the caller of start has
// already returned by the time they can happen.
type Session struct {
	identifier string
	id         string
	sub        *shutdown.Subscription

	// Seams for tests; NewSession wires the real implementations.
	bind            func(discovery.Config) (endpointHandle, error)
	clk             clock.Clock
	summaryInterval time.Duration
	hooks           Hooks
}

// NewSession creates a session for one identifier, holding one subscription
// on the shared shutdown coordinator.
func NewSession(identifier string, sub *shutdown.Subscription) *Session {
	return &Session{
		identifier: identifier,
		id:         uuid.NewString()[:8],
		sub:        sub,
		bind: func(cfg discovery.Config) (endpointHandle, error) {
			return discovery.Bind(cfg)
		},
		clk:             clock.New(),
		summaryInterval: DefaultSummaryInterval,
	}
}

// SetHooks registers progress callbacks. Must be called before Run.
func (s *Session) SetHooks(hooks Hooks) {
	s.hooks = hooks
}

// ID returns the session's log-correlation identifier.
func (s *Session) ID() string {
	return s.id
}

// Run executes the session to completion: it blocks until the shutdown
// signal fires or ctx is canceled, then closes the endpoint. The returned
// error reports why the session aborted; a clean shutdown returns nil.
func (s *Session) Run(ctx context.Context) error {
	defer s.sub.Cancel()

	label, err := ParseLabel(s.identifier)
	if err != nil {
		return fmt.Errorf("invalid identifier %q: %w", s.identifier, err)
	}

	sessionLogger.Info("creating endpoint with mDNS discovery",
		"session", s.id, "identifier", label)

	ep, err := s.bind(discovery.Config{Label: label})
	if err != nil {
		return fmt.Errorf("failed to bind endpoint: %w", err)
	}

	nodeID := ep.NodeID()
	sessionLogger.Info("endpoint ready",
		"session", s.id, "identifier", label, "node_id", nodeID.String())
	sessionLogger.Info("listening for peers via mDNS discovery", "session", s.id)
	if s.hooks.OnBound != nil {
		s.hooks.OnBound(nodeID)
	}

	// Both tasks stop when the session does, however it exits.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// One broadcast reaches the session and both derived handles.
	consumer := NewConsumer(ep.Events(), nodeID, s.sub.Derive(), s.id, s.hooks.OnEvent)
	go consumer.Run(runCtx)

	reporter := NewReporter(ep, s.clk, s.summaryInterval, s.sub.Derive(), s.id)
	reporter.onSummary = s.hooks.OnSummary
	go reporter.Run(runCtx)

	select {
	case <-s.sub.Done():
	case <-ctx.Done():
	}
	sessionLogger.Info("peer shutting down", "session", s.id)

	if err := ep.Close(); err != nil {
		sessionLogger.Warn("endpoint close failed", "session", s.id, "error", err)
	}
	sessionLogger.Info("peer shutdown complete", "session", s.id, "identifier", label)
	return nil
}
