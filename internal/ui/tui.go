// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the peer table
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run creates the TUI program for one identifier. The caller runs it and
// feeds it Peer/Summary/Identity messages via Send.
func Run(identifier string) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(identifier), tea.WithAltScreen())
	return p, nil
}
