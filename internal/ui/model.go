// Package ui provides the Bubbletea terminal monitor for the analysis engine.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/oszuidwest/zwfm-ledsync/internal/types"
)

// TickInterval is the refresh period of the monitor (50 Hz).
const TickInterval = 20 * time.Millisecond

// Source provides the data the monitor renders.
type Source interface {
	Snapshot() types.Snapshot
	Status() types.EngineStatus
}

// tickMsg requests a refresh.
type tickMsg time.Time

// Model is the Bubbletea model of the terminal monitor.
type Model struct {
	source Source

	Snapshot types.Snapshot
	Status   types.EngineStatus

	// Strongest onset seen recently, kept on screen for a moment.
	lastOnset   types.OnsetState
	lastOnsetAt time.Time

	Width  int
	Height int
}

// NewModel creates a monitor reading from source.
func NewModel(source Source) Model {
	return Model{
		source:    source,
		lastOnset: types.OnsetIdle,
	}
}

// Init starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		m.Snapshot = m.source.Snapshot()
		m.Status = m.source.Status()
		now := time.Time(msg)
		if m.Snapshot.State != types.OnsetIdle {
			m.lastOnset = m.Snapshot.State
			m.lastOnsetAt = now
		} else if now.Sub(m.lastOnsetAt) > onsetLinger {
			m.lastOnset = types.OnsetIdle
		}
		return m, tick()
	}

	return m, nil
}

// View renders the monitor.
func (m Model) View() string {
	return renderMonitor(m)
}
