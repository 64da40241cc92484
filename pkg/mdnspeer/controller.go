// ABOUTME: Public start/stop lifecycle contract
// ABOUTME: Validates untrusted input, launches detached sessions, broadcasts shutdown
package mdnspeer

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/jamiepine/mdns-peer-go/internal/app"
	"github.com/jamiepine/mdns-peer-go/internal/logging"
	"github.com/jamiepine/mdns-peer-go/internal/shutdown"
)

var logger = logging.Logger("mdnspeer")

// DefaultIdentifier is the identifier the legacy entry points use.
const DefaultIdentifier = "bob"

// sessionRunner is what the controller launches; app.Session in production.
type sessionRunner interface {
	ID() string
	Run(ctx context.Context) error
}

// Controller drives a ProcessState: it is the start/stop surface exposed to
// the host application. Methods tolerate untrusted input and repeated calls.
type Controller struct {
	state      *ProcessState
	newSession func(identifier string, sub *shutdown.Subscription) sessionRunner
}

// NewController creates a controller over the given state.
func NewController(state *ProcessState) *Controller {
	return &Controller{
		state: state,
		newSession: func(identifier string, sub *shutdown.Subscription) sessionRunner {
			return app.NewSession(identifier, sub)
		},
	}
}

// Start launches a peer session labeled by identifier and returns
// immediately. It reports false, with no side effects, when the identifier
// is not valid text; true otherwise, even when the session later
// fails, which is observable only through logs. Each call creates one more
// concurrent session subscribed to the shared shutdown coordinator.
func (c *Controller) Start(identifier string) bool {
	if !utf8.ValidString(identifier) {
		// Raw bytes from a foreign caller; refuse before touching state.
		logging.Init()
		logger.Warn("invalid text in identifier; not starting")
		return false
	}

	ctx := c.state.EnsureContext()
	coord := c.state.EnsureCoordinator()

	sess := c.newSession(identifier, coord.Subscribe())
	logger.Info("peer starting", "identifier", identifier, "session", sess.ID())

	go func() {
		if err := sess.Run(ctx); err != nil {
			logger.Warn("session error", "identifier", identifier, "session", sess.ID(), "error", err)
			return
		}
		logger.Info("session completed", "identifier", identifier, "session", sess.ID())
	}()

	return true
}

// Stop broadcasts the shutdown signal to every active session. Calling it
// with nothing started is a logged no-op; calling it repeatedly is safe.
// Stop guarantees the signal is sent, not that sessions have finished when
// it returns.
func (c *Controller) Stop() {
	logger.Info("stopping peer")

	coord := c.state.Coordinator()
	if coord == nil {
		logger.Warn("peer was never started")
		return
	}

	coord.Signal()
	logger.Info("shutdown signal sent")
}

// Start launches a session on the process-wide default state.
func Start(identifier string) bool {
	return defaultController().Start(identifier)
}

// Stop signals every session on the process-wide default state.
func Stop() {
	defaultController().Stop()
}

var (
	defaultCtrl     *Controller
	defaultCtrlOnce sync.Once
)

func defaultController() *Controller {
	defaultCtrlOnce.Do(func() {
		defaultCtrl = NewController(DefaultState())
	})
	return defaultCtrl
}
