// ABOUTME: Collection of conversations with an active selection
// ABOUTME: Saved to and loaded from a JSON file when history is kept
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Library holds every conversation, newest first
type Library struct {
	mu     sync.Mutex
	a      *Assistant
	convs  []*Conversation
	active string
}

// NewLibrary creates an empty library
func NewLibrary(a *Assistant) *Library {
	return &Library{a: a}
}

// New creates a conversation, puts it first and makes it active
func (l *Library) New() *Conversation {
	c := NewConversation(l.a)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.convs = append([]*Conversation{c}, l.convs...)
	l.active = c.ID()
	return c
}

// Active returns the active conversation, creating one if the library is empty
func (l *Library) Active() *Conversation {
	l.mu.Lock()
	for _, c := range l.convs {
		if c.ID() == l.active {
			l.mu.Unlock()
			return c
		}
	}
	if len(l.convs) > 0 {
		l.active = l.convs[0].ID()
		c := l.convs[0]
		l.mu.Unlock()
		return c
	}
	l.mu.Unlock()
	return l.New()
}

// Select makes id the active conversation
func (l *Library) Select(id string) (*Conversation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.convs {
		if c.ID() == id {
			l.active = id
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
}

// Delete removes a conversation. Deleting the active one selects the first
// remaining conversation.
func (l *Library) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.convs[:0:0]
	found := false
	for _, c := range l.convs {
		if c.ID() == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	l.convs = kept

	if l.active == id {
		l.active = ""
		if len(kept) > 0 {
			l.active = kept[0].ID()
		}
	}
	return nil
}

// List returns the conversations, newest first
func (l *Library) List() []*Conversation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Conversation, len(l.convs))
	copy(out, l.convs)
	return out
}

// Save writes every conversation as a JSON array
func (l *Library) Save(w io.Writer) error {
	records := make([]Record, 0)
	for _, c := range l.List() {
		records = append(records, c.Record())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode conversations: %w", err)
	}
	return nil
}

// Load replaces the library contents and selects the first conversation
func (l *Library) Load(r io.Reader) error {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return fmt.Errorf("decode conversations: %w", err)
	}

	convs := make([]*Conversation, 0, len(records))
	for _, rec := range records {
		convs = append(convs, Restore(l.a, rec))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.convs = convs
	l.active = ""
	if len(convs) > 0 {
		l.active = convs[0].ID()
	}
	return nil
}

// SaveFile writes the library to path, creating parent directories
func (l *Library) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create history file: %w", err)
	}
	if err := l.Save(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close history file: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadFile reads the library from path. A missing file leaves it empty.
func (l *Library) LoadFile(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()
	return l.Load(f)
}
