// ABOUTME: A single chat conversation and its turns
// ABOUTME: Send compacts then asks the responder; Edit replays from an earlier message
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultTitle is the title of a conversation before its first message
	DefaultTitle = "New Chat"

	// MaxVideoBytes limits video attachments
	MaxVideoBytes = 50 * 1024 * 1024

	// MinSuggestInput is the shortest draft that gets suggestions
	MinSuggestInput = 10

	titleLength = 25
)

// Responder produces the model reply to msg given the prior context.
// context never contains welcome messages.
type Responder interface {
	Respond(ctx context.Context, context []Message, msg Message) (string, error)
}

// Suggester proposes ways to continue a draft
type Suggester interface {
	Suggest(ctx context.Context, context []Message, draft string) ([]string, error)
}

// Assistant bundles the model collaborators shared by conversations
type Assistant struct {
	Responder  Responder
	Summarizer Summarizer
	Suggester  Suggester
	Policy     Policy
	Logger     *zap.Logger
}

func (a *Assistant) logger() *zap.Logger {
	if a == nil || a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

// Record is the persisted form of a conversation
type Record struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

// Turn is the result of Send or Edit
type Turn struct {
	User  Message
	Reply Message

	// Compacted is true when history was summarized before this turn
	Compacted bool

	// ResponseErr is the responder failure rendered as Reply, if any
	ResponseErr error
}

// Report pairs a reported model message with the user query before it
type Report struct {
	Message Message
	Query   *Message
}

// Conversation is one chat. Turns are serialized; a Send blocks while
// another turn is in flight.
type Conversation struct {
	mu       sync.Mutex
	id       string
	title    string
	messages []Message
	a        *Assistant
}

// NewConversation starts a conversation with the welcome message
func NewConversation(a *Assistant) *Conversation {
	return &Conversation{
		id:       uuid.NewString(),
		title:    DefaultTitle,
		messages: []Message{Welcome()},
		a:        a,
	}
}

// Restore rebuilds a conversation from a saved record
func Restore(a *Assistant, r Record) *Conversation {
	c := &Conversation{
		id:       r.ID,
		title:    r.Title,
		messages: clone(r.Messages),
		a:        a,
	}
	if c.id == "" {
		c.id = uuid.NewString()
	}
	if c.title == "" {
		c.title = DefaultTitle
	}
	if len(c.messages) == 0 {
		c.messages = []Message{Welcome()}
	}
	return c
}

func (c *Conversation) ID() string {
	return c.id
}

func (c *Conversation) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.title
}

// Messages returns a copy of the history
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.messages)
}

// Record returns the persisted form
func (c *Conversation) Record() Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Record{ID: c.id, Title: c.title, Messages: clone(c.messages)}
}

// Send adds a user turn. When the history has reached the policy threshold
// it is compacted first; a summarization failure aborts the turn with the
// history untouched. A responder failure becomes the model reply and is
// reported in Turn.ResponseErr, not as an error.
func (c *Conversation) Send(ctx context.Context, text string, file *FileRef) (Turn, error) {
	if strings.TrimSpace(text) == "" && file == nil {
		return Turn{}, ErrEmptyMessage
	}
	if file.IsVideo() && len(file.Data) > MaxVideoBytes {
		return Turn{}, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, file.Name, len(file.Data))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.a.logger().With(zap.String("conversation", c.id))

	user := NewMessage(RoleUser, text)
	if file != nil {
		f := *file
		user.File = &f
	}

	if c.title == DefaultTitle && text != "" {
		c.title = truncate(text, titleLength)
	}

	comp, err := c.a.Policy.Compact(ctx, c.messages, c.a.Summarizer)
	if err != nil {
		log.Warn("compaction failed", zap.Error(err))
		return Turn{}, err
	}
	if comp.Triggered {
		log.Info("history compacted",
			zap.Int("before", len(c.messages)),
			zap.Int("after", len(comp.History)))
	}

	// Attachment bytes are only needed for this request.
	stored := user
	if stored.File != nil {
		stored.File = &FileRef{Name: user.File.Name, MIMEType: user.File.MIMEType}
	}
	c.messages = append(comp.History, stored)

	turn := c.respond(ctx, log, comp.Context, user)
	turn.Compacted = comp.Triggered
	turn.User = stored
	return turn, nil
}

// Edit replaces the user message id and everything after it with a new
// user message and a fresh reply. Edits never compact and carry no
// attachment.
func (c *Conversation) Edit(ctx context.Context, id, text string) (Turn, error) {
	if strings.TrimSpace(text) == "" {
		return Turn{}, ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return Turn{}, fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}
	if c.messages[idx].Role != RoleUser {
		return Turn{}, fmt.Errorf("%w: %s is not a user message", ErrMessageNotFound, id)
	}

	log := c.a.logger().With(zap.String("conversation", c.id))

	before := clone(c.messages[:idx])
	user := NewMessage(RoleUser, text)
	c.messages = append(before, user)

	turn := c.respond(ctx, log, ModelContext(before), user)
	turn.User = user
	return turn, nil
}

// respond asks the responder and appends the reply. Called with mu held.
func (c *Conversation) respond(ctx context.Context, log *zap.Logger, history []Message, user Message) Turn {
	var turn Turn

	text, err := c.a.Responder.Respond(ctx, history, user)
	if err != nil {
		log.Warn("response failed", zap.Error(err))
		turn.ResponseErr = err
		text = replyText(err)
	}

	turn.Reply = NewMessage(RoleModel, text)
	c.messages = append(c.messages, turn.Reply)
	return turn
}

// Suggest returns continuations for draft. Drafts shorter than
// MinSuggestInput, or a missing Suggester, yield no suggestions.
func (c *Conversation) Suggest(ctx context.Context, draft string) ([]string, error) {
	if utf8.RuneCountInString(draft) < MinSuggestInput || c.a == nil || c.a.Suggester == nil {
		return nil, nil
	}

	history := ModelContext(c.Messages())
	suggestions, err := c.a.Suggester.Suggest(ctx, history, draft)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	return suggestions, nil
}

// Report logs a model message as an issue together with the user query
// that preceded it.
func (c *Conversation) Report(id string) (Report, error) {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return Report{}, fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}
	r := Report{Message: c.messages[idx]}
	if idx > 0 && c.messages[idx-1].Role == RoleUser {
		q := c.messages[idx-1]
		r.Query = &q
	}
	c.mu.Unlock()

	fields := []zap.Field{
		zap.String("conversation", c.id),
		zap.String("message", r.Message.Text),
	}
	if r.Query != nil {
		fields = append(fields, zap.String("query", r.Query.Text))
	}
	c.a.logger().Info("issue reported", fields...)
	return r, nil
}

func (c *Conversation) indexOf(id string) int {
	for i, m := range c.messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
