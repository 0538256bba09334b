// ABOUTME: Streaming transport contract consumed by the session
// ABOUTME: Defines inbound events, connection callbacks and the outbound connection
package live

import (
	"context"

	"github.com/cognira/velmora-go/pkg/audio/encode"
)

// DefaultSystemPrompt is the persona used for voice conversations.
const DefaultSystemPrompt = "You are Aetheria, a vocal AI assistant from Velmora. Your voice is your primary interface. " +
	"Keep your responses concise, conversational, and clear. Avoid lists or formatting that doesn't translate well to speech. " +
	"Your goal is to have a natural, back-and-forth conversation."

// InboundEvent is one server message. Any combination of fields may be set;
// empty text fragments are treated as absent.
type InboundEvent struct {
	// Audio is 16-bit little-endian PCM at 24 kHz mono
	Audio        []byte
	Interrupted  bool
	UserText     string
	ModelText    string
	TurnComplete bool
}

// Empty reports whether the event carries no signal at all
func (e InboundEvent) Empty() bool {
	return len(e.Audio) == 0 && !e.Interrupted && e.UserText == "" && e.ModelText == "" && !e.TurnComplete
}

// Callbacks receive connection lifecycle and messages. They may be invoked
// from any goroutine, including before Connect returns.
type Callbacks struct {
	OnOpen    func()
	OnMessage func(InboundEvent)
	OnError   func(error)
	OnClose   func()
}

// Conn is an open remote session
type Conn interface {
	// SendRealtimeInput sends one audio frame. Safe for concurrent use.
	SendRealtimeInput(frame encode.Frame) error

	// Close requests the remote session to close. Safe to call more than once.
	Close() error
}

// Transport opens remote sessions
type Transport interface {
	Connect(ctx context.Context, systemPrompt string, cb Callbacks) (Conn, error)
}
