// ABOUTME: Rolling context compaction
// ABOUTME: Summarizes the oldest window of history once a threshold is reached
package chat

import (
	"context"
	"fmt"
)

const (
	DefaultThreshold = 12
	DefaultWindow    = 8
)

// Summarizer condenses a slice of messages into a short text
type Summarizer interface {
	Summarize(ctx context.Context, messages []Message) (string, error)
}

// Policy decides when and how much history is summarized
type Policy struct {
	// Threshold is the history length at which a turn compacts first
	Threshold int `toml:"threshold" validate:"gte=2"`

	// Window is the number of messages after the welcome that are summarized
	Window int `toml:"window" validate:"gte=1"`
}

// DefaultPolicy returns the 12/8 policy
func DefaultPolicy() Policy {
	return Policy{Threshold: DefaultThreshold, Window: DefaultWindow}
}

// Compaction is the outcome of applying a Policy to a history
type Compaction struct {
	// Triggered is true when a summary replaced part of the history
	Triggered bool

	// History is the effective history: [welcome, summary, recent...] when
	// triggered, otherwise a copy of the input.
	History []Message

	// Context is History without welcome messages
	Context []Message

	// Summary is the inserted summary message when triggered
	Summary *Message
}

// ShouldCompact reports whether history has reached the threshold
func (p Policy) ShouldCompact(history []Message) bool {
	return p.Threshold > 0 && len(history) >= p.Threshold && len(history) > 1
}

// Compact summarizes the window after history[0] when the threshold is
// reached. history is never modified. On summarizer failure the returned
// error wraps ErrSummarization and the Compaction is empty.
func (p Policy) Compact(ctx context.Context, history []Message, s Summarizer) (Compaction, error) {
	if !p.ShouldCompact(history) || p.Window <= 0 {
		kept := clone(history)
		return Compaction{History: kept, Context: ModelContext(kept)}, nil
	}

	end := 1 + p.Window
	if end > len(history) {
		end = len(history)
	}
	window := clone(history[1:end])
	if s == nil {
		return Compaction{}, fmt.Errorf("%w: no summarizer", ErrSummarization)
	}

	summary, err := s.Summarize(ctx, window)
	if err != nil {
		return Compaction{}, fmt.Errorf("%w: %w", ErrSummarization, err)
	}

	msg := SummaryMessage(summary)
	effective := make([]Message, 0, 2+len(history)-end)
	effective = append(effective, history[0], msg)
	effective = append(effective, history[end:]...)

	return Compaction{
		Triggered: true,
		History:   effective,
		Context:   ModelContext(effective),
		Summary:   &msg,
	}, nil
}

func clone(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
