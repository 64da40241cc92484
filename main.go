// ABOUTME: Desktop entry point for the peer-presence service
// ABOUTME: Runs one session to completion with interrupt-driven shutdown
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jamiepine/mdns-peer-go/internal/app"
	"github.com/jamiepine/mdns-peer-go/internal/discovery"
	"github.com/jamiepine/mdns-peer-go/internal/logging"
	"github.com/jamiepine/mdns-peer-go/internal/shutdown"
	"github.com/jamiepine/mdns-peer-go/internal/ui"
	"github.com/jamiepine/mdns-peer-go/internal/version"
)

var (
	name    = flag.String("name", "", "Peer identifier (default: PEER_ID env var, then \"bob\")")
	logFile = flag.String("log-file", "", "Log file path (default: stderr; TUI mode defaults to mdns-peer.log)")
	useTUI  = flag.Bool("tui", false, "Show the live peer table instead of streaming logs")
)

var logger = logging.Logger("mdnspeer")

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	identifier := flag.Arg(0)
	if identifier == "" {
		identifier = *name
	}
	if identifier == "" {
		identifier = os.Getenv("PEER_ID")
	}
	if identifier == "" {
		identifier = "bob"
	}

	logging.Init()

	// The TUI owns the terminal; logs go to a file in that mode.
	logPath := *logFile
	if logPath == "" && *useTUI {
		logPath = "mdns-peer.log"
	}
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			logger.Error("error opening log file", "path", logPath, "error", err)
			return 1
		}
		defer func() { _ = f.Close() }()

		if *useTUI {
			logging.SetOutput(f)
		} else {
			logging.SetOutput(io.MultiWriter(os.Stderr, f))
		}
	}

	logger.Info("running as",
		"product", version.Product, "version", version.Version, "identifier", identifier)

	coord := shutdown.NewCoordinator()
	sess := app.NewSession(identifier, coord.Subscribe())

	var prog *tea.Program
	if *useTUI {
		var err error
		prog, err = ui.Run(identifier)
		if err != nil {
			logger.Error("failed to start TUI", "error", err)
			return 1
		}
		sess.SetHooks(tuiHooks(prog, identifier))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("interrupt received, shutting down")
		if prog != nil {
			prog.Quit()
		}
		coord.Signal()
	}()

	if prog != nil {
		// Run the session in the background and the TUI on this
		// goroutine; quitting the TUI stops the session.
		done := make(chan error, 1)
		go func() { done <- sess.Run(context.Background()) }()

		if _, err := prog.Run(); err != nil {
			logger.Error("TUI failed", "error", err)
		}
		coord.Signal()

		if err := <-done; err != nil {
			logger.Error("session failed", "error", err)
			return 1
		}
		return 0
	}

	if err := sess.Run(context.Background()); err != nil {
		logger.Error("session failed", "error", err)
		return 1
	}
	return 0
}

// tuiHooks adapts session progress into bubbletea messages.
func tuiHooks(prog *tea.Program, identifier string) app.Hooks {
	return app.Hooks{
		OnBound: func(nodeID discovery.PeerIdentity) {
			prog.Send(ui.IdentityMsg{Identifier: identifier, NodeID: nodeID.String()})
		},
		OnEvent: func(ev discovery.Event) {
			switch ev.Kind {
			case discovery.EventDiscovered:
				prog.Send(ui.PeerMsg{
					NodeID:   ev.Peer.String(),
					Label:    ev.Label,
					HasLabel: ev.HasLabel,
					Source:   ev.Source,
				})
			case discovery.EventExpired:
				prog.Send(ui.PeerExpiredMsg{NodeID: ev.Peer.String()})
			}
		},
		OnSummary: func(count int) {
			prog.Send(ui.SummaryMsg{Count: count})
		},
	}
}
