// ABOUTME: Process-scoped shared state for the peer-presence service
// ABOUTME: One execution context and one shutdown coordinator per process
package mdnspeer

import (
	"context"
	"sync"

	"github.com/jamiepine/mdns-peer-go/internal/logging"
	"github.com/jamiepine/mdns-peer-go/internal/shutdown"
)

// ProcessState owns the resources every session shares: the background
// execution context and the shutdown coordinator. Both are created lazily
// and exactly once; repeated starts reuse them. There is no teardown: the
// process owns these resources for its entire life.
type ProcessState struct {
	mu    sync.Mutex
	ctx   context.Context
	coord *shutdown.Coordinator
}

// NewProcessState creates isolated state. Embedders normally use
// DefaultState; tests construct their own.
func NewProcessState() *ProcessState {
	return &ProcessState{}
}

var (
	defaultState     *ProcessState
	defaultStateOnce sync.Once
)

// DefaultState returns the process-wide state instance.
func DefaultState() *ProcessState {
	defaultStateOnce.Do(func() {
		defaultState = NewProcessState()
	})
	return defaultState
}

// EnsureContext returns the shared execution context, creating it on first
// call. First use also initializes logging.
func (s *ProcessState) EnsureContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		logging.Init()
		s.ctx = context.Background()
	}
	return s.ctx
}

// EnsureCoordinator returns the shared shutdown coordinator, creating it on
// first call. Every session started in this process subscribes to the one
// coordinator, so a single Stop reaches them all.
func (s *ProcessState) EnsureCoordinator() *shutdown.Coordinator {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coord == nil {
		s.coord = shutdown.NewCoordinator()
	}
	return s.coord
}

// Coordinator returns the coordinator if one was ever created, else nil.
// Stop uses this to distinguish "never started" from "running".
func (s *ProcessState) Coordinator() *shutdown.Coordinator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coord
}
