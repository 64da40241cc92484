// ABOUTME: Tests for the peer session lifecycle
// ABOUTME: Covers identifier validation, bind failure, and orderly shutdown
package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamiepine/mdns-peer-go/internal/discovery"
	"github.com/jamiepine/mdns-peer-go/internal/shutdown"
)

type fakeEndpoint struct {
	mu     sync.Mutex
	events chan discovery.Event
	closed bool
}

func newFakeEndpoint() *fakeEndpoint {
	return &fakeEndpoint{events: make(chan discovery.Event, 8)}
}

func (f *fakeEndpoint) NodeID() discovery.PeerIdentity      { return "fake-node" }
func (f *fakeEndpoint) Events() <-chan discovery.Event      { return f.events }
func (f *fakeEndpoint) RemotePeers() []discovery.RemoteInfo { return nil }

func (f *fakeEndpoint) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

func (f *fakeEndpoint) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		want       string
		wantErr    error
	}{
		{"plain", "alice", "alice", nil},
		{"trimmed", "  bob  ", "bob", nil},
		{"empty", "", "", ErrEmptyIdentifier},
		{"whitespace only", "   ", "", ErrEmptyIdentifier},
		{"too long", strings.Repeat("x", 64), "", ErrIdentifierTooLong},
		{"control chars", "ali\x00ce", "", ErrIdentifierInvalid},
		{"invalid utf8", string([]byte{0xff, 0xfe}), "", ErrIdentifierInvalid},
		{"unicode ok", "ålice", "ålice", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLabel(tt.identifier)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSessionAbortsOnInvalidIdentifier(t *testing.T) {
	coord := shutdown.NewCoordinator()
	s := NewSession("", coord.Subscribe())

	err := s.Run(context.Background())
	require.ErrorIs(t, err, ErrEmptyIdentifier)
	assert.Equal(t, 0, coord.SubscriberCount(), "aborted session must release its subscription")
}

func TestSessionAbortsOnBindFailure(t *testing.T) {
	coord := shutdown.NewCoordinator()
	s := NewSession("alice", coord.Subscribe())
	bindErr := errors.New("address in use")
	s.bind = func(discovery.Config) (endpointHandle, error) { return nil, bindErr }

	err := s.Run(context.Background())
	require.ErrorIs(t, err, bindErr)
	assert.Equal(t, 0, coord.SubscriberCount())
}

func TestSessionRunsUntilShutdown(t *testing.T) {
	coord := shutdown.NewCoordinator()
	ep := newFakeEndpoint()

	s := NewSession("alice", coord.Subscribe())
	var boundLabel string
	s.bind = func(cfg discovery.Config) (endpointHandle, error) {
		boundLabel = cfg.Label
		return ep, nil
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	// The session is blocked on its subscription; the endpoint stays open.
	time.Sleep(50 * time.Millisecond)
	require.False(t, ep.isClosed())

	coord.Signal()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(testWait):
		t.Fatal("session did not shut down in time")
	}

	assert.Equal(t, "alice", boundLabel)
	assert.True(t, ep.isClosed(), "shutdown must close the endpoint")
}

func TestSessionHooksReceiveProgress(t *testing.T) {
	coord := shutdown.NewCoordinator()
	ep := newFakeEndpoint()

	s := NewSession("alice", coord.Subscribe())
	s.bind = func(discovery.Config) (endpointHandle, error) { return ep, nil }

	observed := make(chan discovery.Event, 1)
	bound := make(chan discovery.PeerIdentity, 1)
	s.SetHooks(Hooks{
		OnBound: func(id discovery.PeerIdentity) { bound <- id },
		OnEvent: func(ev discovery.Event) { observed <- ev },
	})

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	select {
	case id := <-bound:
		assert.Equal(t, discovery.PeerIdentity("fake-node"), id)
	case <-time.After(testWait):
		t.Fatal("OnBound hook did not fire")
	}

	ep.events <- discovery.Event{
		Kind: discovery.EventDiscovered, Peer: "remote", Label: "bob", HasLabel: true,
	}

	select {
	case ev := <-observed:
		assert.Equal(t, "bob", ev.Label)
	case <-time.After(testWait):
		t.Fatal("observer did not receive the discovery event")
	}

	coord.Signal()
	select {
	case <-done:
	case <-time.After(testWait):
		t.Fatal("session did not shut down in time")
	}
}

func TestSessionStopsOnContextCancel(t *testing.T) {
	coord := shutdown.NewCoordinator()
	ep := newFakeEndpoint()

	s := NewSession("alice", coord.Subscribe())
	s.bind = func(discovery.Config) (endpointHandle, error) { return ep, nil }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(testWait):
		t.Fatal("session did not stop on context cancellation")
	}
	assert.True(t, ep.isClosed())
}

func TestSessionIDIsStable(t *testing.T) {
	coord := shutdown.NewCoordinator()
	s := NewSession("alice", coord.Subscribe())

	require.Len(t, s.ID(), 8)
	assert.Equal(t, s.ID(), s.ID())
}
