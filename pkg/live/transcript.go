// ABOUTME: Accumulates partial transcriptions into completed turns
// ABOUTME: A turn is committed on turnComplete when either side has text
package live

import (
	"strings"

	"github.com/google/uuid"
)

type transcript struct {
	turns []TranscriptTurn
	user  strings.Builder
	model strings.Builder
}

// apply folds one event's text into the accumulators and reports whether a turn was committed
func (t *transcript) apply(ev InboundEvent) bool {
	t.user.WriteString(ev.UserText)
	t.model.WriteString(ev.ModelText)

	if !ev.TurnComplete {
		return false
	}

	committed := false
	if t.user.Len() > 0 || t.model.Len() > 0 {
		t.turns = append(t.turns, TranscriptTurn{
			ID:    uuid.NewString(),
			User:  t.user.String(),
			Model: t.model.String(),
		})
		committed = true
	}
	t.user.Reset()
	t.model.Reset()
	return committed
}

func (t *transcript) reset() {
	t.turns = nil
	t.user.Reset()
	t.model.Reset()
}

func (t *transcript) history() []TranscriptTurn {
	if len(t.turns) == 0 {
		return nil
	}
	out := make([]TranscriptTurn, len(t.turns))
	copy(out, t.turns)
	return out
}
