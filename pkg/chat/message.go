// ABOUTME: Conversation message model
// ABOUTME: Roles, attachments, the welcome message and model-facing filtering
package chat

import (
	"strings"

	"github.com/google/uuid"
)

// Role is the author of a message
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

const (
	// WelcomeText opens every conversation
	WelcomeText = "Hello! I am Velmora AI, an intelligent assistant. How can I help you today?"

	// SummaryPrefix starts the text of a compaction summary message
	SummaryPrefix = "[Summary of earlier conversation:\n"

	summarySuffix = "]"
	welcomeMarker = "Hello! I am Velmora AI"
)

// FileRef describes an attachment. Data is kept in memory for the current
// turn only and is not persisted.
type FileRef struct {
	Name     string `json:"name"`
	MIMEType string `json:"type"`
	Data     []byte `json:"-"`
}

// IsVideo reports whether the attachment is a video
func (f *FileRef) IsVideo() bool {
	return f != nil && strings.HasPrefix(f.MIMEType, "video/")
}

// Message is one conversation entry
type Message struct {
	ID   string   `json:"id"`
	Role Role     `json:"role"`
	Text string   `json:"content"`
	File *FileRef `json:"file,omitempty"`
}

// NewMessage creates a message with a fresh id
func NewMessage(role Role, text string) Message {
	return Message{ID: uuid.NewString(), Role: role, Text: text}
}

// Welcome creates the opening model message
func Welcome() Message {
	return NewMessage(RoleModel, WelcomeText)
}

// SummaryMessage wraps a summary in the model message stored in history
func SummaryMessage(summary string) Message {
	return NewMessage(RoleModel, SummaryPrefix+summary+summarySuffix)
}

// IsWelcome reports whether m is a welcome message
func (m Message) IsWelcome() bool {
	return m.Role == RoleModel && strings.HasPrefix(m.Text, welcomeMarker)
}

// IsSummary reports whether m was produced by compaction
func (m Message) IsSummary() bool {
	return m.Role == RoleModel && strings.HasPrefix(m.Text, SummaryPrefix)
}

// ModelContext returns the messages that are sent to the model, which is
// everything except welcome messages.
func ModelContext(history []Message) []Message {
	out := make([]Message, 0, len(history))
	for _, m := range history {
		if m.IsWelcome() {
			continue
		}
		out = append(out, m)
	}
	return out
}
