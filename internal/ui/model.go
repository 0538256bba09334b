// ABOUTME: Bubbletea model for the live room TUI
// ABOUTME: Renders session status, speaking state and the transcript
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cognira/velmora-go/pkg/live"
)

const (
	boxWidth     = 54
	visibleTurns = 4
	volumeStep   = 5
)

// Model represents the TUI state
type Model struct {
	// Session
	status   live.Status
	speaking bool
	errText  string

	// Transcript
	turns       []live.TranscriptTurn
	userInput   string
	modelOutput string

	// Playback
	volume int
	muted  bool

	// Stats
	stats      live.Stats
	goroutines int
	memAlloc   uint64

	showDebug bool

	width  int
	height int

	controls *Controls
}

// StateMsg carries a session snapshot
type StateMsg struct {
	State live.State
}

// RuntimeMsg carries process statistics for the debug panel
type RuntimeMsg struct {
	Goroutines int
	MemAlloc   uint64
}

// ToggleMsg asks the owner to start or stop the session
type ToggleMsg struct{}

// VolumeChangeMsg reports a volume or mute change
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

// QuitMsg asks the owner to shut down
type QuitMsg struct{}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StateMsg:
		m.applyState(msg.State)
	case RuntimeMsg:
		m.goroutines = msg.Goroutines
		m.memAlloc = msg.MemAlloc
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderTranscript())
	b.WriteString(m.renderControls())
	if m.showDebug {
		b.WriteString(m.renderDebug())
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

// renderHeader renders session status
func (m Model) renderHeader() string {
	icon := "○"
	switch {
	case m.speaking:
		icon = "◉"
	case m.status == live.StatusConnected:
		icon = "●"
	}

	s := "┌─ Aetheria Room ──────────────────────────────────────┐\n"
	s += line(fmt.Sprintf("Status: %s %s", icon, statusText(m.status, m.speaking)))
	if m.errText != "" {
		s += line("Error:  " + m.errText)
	}
	s += "├──────────────────────────────────────────────────────┤\n"
	return s
}

// renderTranscript renders the last turns and the live partials
func (m Model) renderTranscript() string {
	if len(m.turns) == 0 && m.userInput == "" && m.modelOutput == "" && m.status != live.StatusConnected {
		return line("Conversation transcript will appear here.")
	}

	turns := m.turns
	if len(turns) > visibleTurns {
		turns = turns[len(turns)-visibleTurns:]
	}

	s := ""
	for _, t := range turns {
		if t.User != "" {
			s += line("You:       " + t.User)
		}
		if t.Model != "" {
			s += line("Aetheria:  " + t.Model)
		}
	}
	if m.userInput != "" {
		s += line("You:       " + m.userInput + "…")
	}
	if m.modelOutput != "" {
		s += line("Aetheria:  " + m.modelOutput + "…")
	}
	if s == "" {
		s = line("Listening...")
	}
	return s
}

// renderControls renders volume and action
func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " (muted)"
	}

	s := "├──────────────────────────────────────────────────────┤\n"
	s += line(fmt.Sprintf("Volume: [%s] %d%%%s", renderBar(m.volume, 100, 10), m.volume, muteIcon))
	s += line("Action: " + actionText(m.status))
	return s
}

// renderDebug renders session counters
func (m Model) renderDebug() string {
	s := line("DEBUG:")
	s += line(fmt.Sprintf("  Frames sent: %d  Send failures: %d", m.stats.FramesSent, m.stats.SendFailures))
	s += line(fmt.Sprintf("  Chunks: %d  Decode failures: %d", m.stats.ChunksScheduled, m.stats.DecodeFailures))
	s += line(fmt.Sprintf("  Interruptions: %d", m.stats.Interruptions))
	s += line(fmt.Sprintf("  Goroutines: %d  Heap: %.1f MB", m.goroutines, float64(m.memAlloc)/(1<<20)))
	return s
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ space:Talk  ↑/↓:Volume  m:Mute  d:Debug  q:Quit      │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.controls != nil {
			select {
			case m.controls.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case " ", "enter":
		// ignored while connecting, like the disabled button
		if m.status == live.StatusConnecting {
			return m, nil
		}
		if m.controls != nil {
			select {
			case m.controls.Toggle <- ToggleMsg{}:
			default:
			}
		}
	case "up":
		m.volume = min(m.volume+volumeStep, 100)
		m.sendVolume()
	case "down":
		m.volume = max(m.volume-volumeStep, 0)
		m.sendVolume()
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m Model) sendVolume() {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

// applyState replaces the session view with a snapshot
func (m *Model) applyState(st live.State) {
	m.status = st.Status
	m.speaking = st.Speaking
	m.errText = st.Error
	m.turns = st.Transcript
	m.userInput = st.UserInput
	m.modelOutput = st.ModelOutput
	m.stats = st.Stats
}

func statusText(status live.Status, speaking bool) string {
	switch status {
	case live.StatusConnecting:
		return "Connecting..."
	case live.StatusConnected:
		if speaking {
			return "Connected (speaking)"
		}
		return "Connected (listening)"
	case live.StatusError:
		return "Error"
	default:
		return "Idle"
	}
}

func actionText(status live.Status) string {
	switch status {
	case live.StatusConnecting:
		return "Connecting..."
	case live.StatusConnected:
		return "End Conversation"
	default:
		return "Start Conversation"
	}
}

// line pads text into one box row
func line(text string) string {
	return fmt.Sprintf("│ %-*s │\n", boxWidth-2, truncate(text, boxWidth-2))
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-3]) + "..."
}
