// ABOUTME: Tests for transcript accumulation
// ABOUTME: Covers fragment concatenation and empty turn completion
package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptCommitsConcatenatedFragments(t *testing.T) {
	var tr transcript

	events := []InboundEvent{
		{UserText: "Hel"},
		{UserText: "lo "},
		{ModelText: "Hi", UserText: "there"},
		{ModelText: " friend"},
	}
	for _, ev := range events {
		assert.False(t, tr.apply(ev))
	}
	assert.Equal(t, "Hello there", tr.user.String())
	assert.Equal(t, "Hi friend", tr.model.String())

	require.True(t, tr.apply(InboundEvent{TurnComplete: true}))
	turns := tr.history()
	require.Len(t, turns, 1)
	assert.Equal(t, "Hello there", turns[0].User)
	assert.Equal(t, "Hi friend", turns[0].Model)
	assert.NotEmpty(t, turns[0].ID)
	assert.Zero(t, tr.user.Len())
	assert.Zero(t, tr.model.Len())
}

func TestTranscriptTextInCompletingEventIsIncluded(t *testing.T) {
	var tr transcript
	tr.apply(InboundEvent{UserText: "a"})
	tr.apply(InboundEvent{ModelText: "b", TurnComplete: true})

	turns := tr.history()
	require.Len(t, turns, 1)
	assert.Equal(t, TranscriptTurn{ID: turns[0].ID, User: "a", Model: "b"}, turns[0])
}

func TestTranscriptEmptyTurnCompleteAppendsNothing(t *testing.T) {
	var tr transcript

	assert.False(t, tr.apply(InboundEvent{TurnComplete: true}))
	assert.Empty(t, tr.history())

	tr.apply(InboundEvent{ModelText: "only model"})
	tr.apply(InboundEvent{TurnComplete: true})
	assert.False(t, tr.apply(InboundEvent{TurnComplete: true}))
	assert.Len(t, tr.history(), 1)
}

func TestTranscriptHistoryIsACopy(t *testing.T) {
	var tr transcript
	tr.apply(InboundEvent{UserText: "x", TurnComplete: true})

	h := tr.history()
	h[0].User = "mutated"
	assert.Equal(t, "x", tr.history()[0].User)

	tr.reset()
	assert.Nil(t, tr.history())
}
