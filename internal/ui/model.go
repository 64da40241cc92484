// ABOUTME: Bubbletea model for the desktop peer table
// ABOUTME: Tracks discovered peers, expiries, and the periodic summary count
package ui

import (
	"fmt"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// PeerMsg reports a discovered peer.
type PeerMsg struct {
	NodeID   string
	Label    string
	HasLabel bool
	Source   string
}

// PeerExpiredMsg reports a peer that stopped advertising.
type PeerExpiredMsg struct {
	NodeID string
}

// SummaryMsg carries the latest routing-table count.
type SummaryMsg struct {
	Count int
}

// IdentityMsg announces the local endpoint once it is bound.
type IdentityMsg struct {
	Identifier string
	NodeID     string
}

type peerRow struct {
	nodeID   string
	label    string
	hasLabel bool
	source   string
	lastSeen time.Time
	order    int
}

// Model is the TUI state.
type Model struct {
	identifier string
	nodeID     string
	peers      map[string]peerRow
	nextOrder  int
	count      int
	width      int
	height     int
}

// NewModel creates the initial TUI state for one identifier.
func NewModel(identifier string) Model {
	return Model{
		identifier: identifier,
		peers:      make(map[string]peerRow),
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case IdentityMsg:
		m.identifier = msg.Identifier
		m.nodeID = msg.NodeID
	case PeerMsg:
		m = m.applyPeer(msg)
	case PeerExpiredMsg:
		delete(m.peers, msg.NodeID)
	case SummaryMsg:
		m.count = msg.Count
	}

	return m, nil
}

func (m Model) applyPeer(msg PeerMsg) Model {
	row, ok := m.peers[msg.NodeID]
	if !ok {
		row = peerRow{nodeID: msg.NodeID, order: m.nextOrder}
		m.nextOrder++
	}
	row.label = msg.Label
	row.hasLabel = msg.HasLabel
	row.source = msg.Source
	row.lastSeen = time.Now()
	m.peers[msg.NodeID] = row
	return m
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := m.renderHeader()
	s += m.renderPeers()
	s += m.renderHelp()
	return s
}

func (m Model) renderHeader() string {
	nodeID := m.nodeID
	if nodeID == "" {
		nodeID = "(binding...)"
	}
	return fmt.Sprintf(`┌─ mdns-peer ──────────────────────────────────────────┐
│ Peer:    %-43s │
│ Node ID: %-43s │
├──────────────────────────────────────────────────────┤
`, truncate(m.identifier, 43), truncate(nodeID, 43))
}

func (m Model) renderPeers() string {
	if len(m.peers) == 0 {
		return "│ No peers discovered yet                              │\n"
	}

	rows := make([]peerRow, 0, len(m.peers))
	for _, row := range m.peers {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].order < rows[j].order })

	s := fmt.Sprintf("│ Peers in routing table: %-28d │\n", m.count)
	for _, row := range rows {
		label := row.label
		if !row.hasLabel {
			label = "(no label)"
		}
		s += fmt.Sprintf("│   %-14s %-10s %-8s %9s ago │\n",
			truncate(label, 14),
			truncate(row.nodeID, 10),
			truncate(row.source, 8),
			sinceShort(row.lastSeen))
	}
	return s
}

func (m Model) renderHelp() string {
	return `├──────────────────────────────────────────────────────┤
│ q:Quit                                               │
└──────────────────────────────────────────────────────┘
`
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func sinceShort(t time.Time) string {
	d := time.Since(t).Round(time.Second)
	if d < 0 {
		d = 0
	}
	return d.String()
}
