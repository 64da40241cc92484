// ABOUTME: Tests for the lifecycle controller and process state
// ABOUTME: Covers input validation, shared-state reuse, idempotent stop
package mdnspeer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamiepine/mdns-peer-go/internal/shutdown"
)

// stubSession records its lifecycle and stops on signal or cancellation.
type stubSession struct {
	id      string
	sub     *shutdown.Subscription
	started chan struct{}
	stopped chan struct{}
}

func (s *stubSession) ID() string { return s.id }

func (s *stubSession) Run(ctx context.Context) error {
	close(s.started)
	defer close(s.stopped)
	defer s.sub.Cancel()
	select {
	case <-s.sub.Done():
	case <-ctx.Done():
	}
	return nil
}

type stubFactory struct {
	mu       sync.Mutex
	sessions []*stubSession
}

func (f *stubFactory) new(identifier string, sub *shutdown.Subscription) sessionRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &stubSession{
		id:      identifier,
		sub:     sub,
		started: make(chan struct{}),
		stopped: make(chan struct{}),
	}
	f.sessions = append(f.sessions, s)
	return s
}

func (f *stubFactory) all() []*stubSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*stubSession(nil), f.sessions...)
}

func newTestController() (*Controller, *stubFactory) {
	f := &stubFactory{}
	c := NewController(NewProcessState())
	c.newSession = f.new
	return c, f
}

func waitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("%s did not happen in time", what)
	}
}

func TestStartReturnsTrueForValidIdentifier(t *testing.T) {
	c, f := newTestController()

	require.True(t, c.Start("alice"))
	require.Len(t, f.all(), 1)
	waitClosed(t, f.all()[0].started, "session start")

	c.Stop()
	waitClosed(t, f.all()[0].stopped, "session stop")
}

func TestStartRejectsInvalidText(t *testing.T) {
	c, f := newTestController()

	ok := c.Start(string([]byte{0xff, 0xfe, 0xfd}))

	assert.False(t, ok)
	assert.Empty(t, f.all(), "no session may be created for invalid input")
	assert.Nil(t, c.state.Coordinator(), "invalid input must have no side effects")
}

func TestRepeatedStartsShareOneCoordinator(t *testing.T) {
	c, f := newTestController()

	require.True(t, c.Start("alice"))
	require.True(t, c.Start("bob"))

	coord := c.state.Coordinator()
	require.NotNil(t, coord)
	assert.Equal(t, 2, coord.SubscriberCount())

	// One stop reaches every session.
	c.Stop()
	for _, s := range f.all() {
		waitClosed(t, s.stopped, "session stop")
	}
}

func TestStopBeforeStartIsNoop(t *testing.T) {
	c, _ := newTestController()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Stop()
	}()
	waitClosed(t, done, "stop before start")
}

func TestStopIsIdempotent(t *testing.T) {
	c, f := newTestController()
	require.True(t, c.Start("alice"))
	waitClosed(t, f.all()[0].started, "session start")

	for i := 0; i < 3; i++ {
		c.Stop()
	}
	waitClosed(t, f.all()[0].stopped, "session stop")

	// A stop after everything exited stays a no-op.
	c.Stop()
}

func TestEnsureContextIsSingleton(t *testing.T) {
	s := NewProcessState()

	ctx1 := s.EnsureContext()
	ctx2 := s.EnsureContext()
	require.NotNil(t, ctx1)
	assert.Equal(t, ctx1, ctx2, "repeated calls must reuse the one context")
}

func TestEnsureCoordinatorIsSingleton(t *testing.T) {
	s := NewProcessState()

	assert.Nil(t, s.Coordinator())
	c1 := s.EnsureCoordinator()
	c2 := s.EnsureCoordinator()
	require.NotNil(t, c1)
	assert.Same(t, c1, c2, "repeated calls must reuse the one coordinator")
	assert.Same(t, c1, s.Coordinator())
}

func TestEnsureConcurrent(t *testing.T) {
	s := NewProcessState()

	var wg sync.WaitGroup
	coords := make([]*shutdown.Coordinator, 16)
	for i := range coords {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.EnsureContext()
			coords[i] = s.EnsureCoordinator()
		}(i)
	}
	wg.Wait()

	for _, c := range coords {
		assert.Same(t, coords[0], c)
	}
}

func TestDefaultStateIsProcessWide(t *testing.T) {
	assert.Same(t, DefaultState(), DefaultState())
}
