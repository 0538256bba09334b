// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the live room
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cognira/velmora-go/pkg/live"
)

// Controls carries user actions from the TUI to the session owner
type Controls struct {
	Toggle  chan ToggleMsg
	Changes chan VolumeChangeMsg
	Quit    chan QuitMsg
}

// NewControls creates the control channels
func NewControls() *Controls {
	return &Controls{
		Toggle:  make(chan ToggleMsg, 1),
		Changes: make(chan VolumeChangeMsg, 10),
		Quit:    make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model showing the session's starting volume
func NewModel(ctrl *Controls, volume int) Model {
	return Model{
		status:   live.StatusIdle,
		volume:   min(max(volume, 0), 100),
		controls: ctrl,
	}
}

// Run creates the TUI program; the caller runs it
func Run(ctrl *Controls, volume int) *tea.Program {
	return tea.NewProgram(NewModel(ctrl, volume), tea.WithAltScreen())
}
