// ABOUTME: Tests for conversation turns
// ABOUTME: Covers send, compaction before a turn, edit, errors as replies and suggestions
package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversation(t *testing.T) {
	c := NewConversation(&Assistant{})

	assert.NotEmpty(t, c.ID())
	assert.Equal(t, DefaultTitle, c.Title())
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, WelcomeText, msgs[0].Text)
	assert.True(t, msgs[0].IsWelcome())
}

func TestSendAppendsUserAndReply(t *testing.T) {
	a, r, _ := newAssistant()
	c := NewConversation(a)

	turn, err := c.Send(context.Background(), "What is Velmora?", nil)
	require.NoError(t, err)

	assert.Equal(t, "re: What is Velmora?", turn.Reply.Text)
	assert.Equal(t, RoleModel, turn.Reply.Role)
	assert.False(t, turn.Compacted)
	assert.NoError(t, turn.ResponseErr)

	assert.Equal(t, []string{WelcomeText, "What is Velmora?", "re: What is Velmora?"}, texts(c.Messages()))

	require.Len(t, r.calls, 1)
	assert.Empty(t, r.calls[0].context, "welcome message is not sent to the model")
}

func TestSendRejectsEmptyInput(t *testing.T) {
	a, r, _ := newAssistant()
	c := NewConversation(a)

	_, err := c.Send(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, r.calls)
	assert.Len(t, c.Messages(), 1)
}

func TestSendAttachmentOnly(t *testing.T) {
	a, r, _ := newAssistant()
	c := NewConversation(a)

	file := &FileRef{Name: "a.png", MIMEType: "image/png", Data: []byte{1, 2, 3}}
	turn, err := c.Send(context.Background(), "", file)
	require.NoError(t, err)

	require.Len(t, r.calls, 1)
	assert.Equal(t, []byte{1, 2, 3}, r.calls[0].msg.File.Data, "responder gets the bytes")

	require.NotNil(t, turn.User.File)
	assert.Equal(t, "a.png", turn.User.File.Name)
	assert.Nil(t, turn.User.File.Data, "bytes are not kept in history")
	assert.Equal(t, DefaultTitle, c.Title())
}

func TestSendRejectsLargeVideo(t *testing.T) {
	a, _, _ := newAssistant()
	c := NewConversation(a)

	file := &FileRef{Name: "v.mp4", MIMEType: "video/mp4", Data: make([]byte, MaxVideoBytes+1)}
	_, err := c.Send(context.Background(), "watch", file)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestSendSetsTitleFromFirstInput(t *testing.T) {
	a, _, _ := newAssistant()
	c := NewConversation(a)

	_, err := c.Send(context.Background(), "Tell me everything about audio codecs please", nil)
	require.NoError(t, err)
	assert.Equal(t, "Tell me everything about ", c.Title())

	_, err = c.Send(context.Background(), "Another question", nil)
	require.NoError(t, err)
	assert.Equal(t, "Tell me everything about ", c.Title())
}

func TestSendCompactsAtThreshold(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		compacted bool
		context   int
		stored    int
	}{
		// 11 messages: sent as-is (10 without welcome), stored 11+2
		{"eleven messages", 11, false, 10, 13},
		// 12 messages: [welcome, summary, 3 recent] then user and reply
		{"twelve messages", 12, true, 4, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, r, s := newAssistant()
			c := Restore(a, Record{ID: "c1", Title: "t", Messages: history(tt.size - 1)})

			turn, err := c.Send(context.Background(), "next", nil)
			require.NoError(t, err)

			assert.Equal(t, tt.compacted, turn.Compacted)
			require.Len(t, r.calls, 1)
			assert.Len(t, r.calls[0].context, tt.context)
			assert.Len(t, c.Messages(), tt.stored)

			if tt.compacted {
				require.Len(t, s.calls, 1)
				assert.True(t, r.calls[0].context[0].IsSummary())
				msgs := c.Messages()
				assert.True(t, msgs[0].IsWelcome())
				assert.True(t, msgs[1].IsSummary())
			} else {
				assert.Empty(t, s.calls)
			}
		})
	}
}

func TestSendSummarizationFailureLeavesHistory(t *testing.T) {
	a, r, s := newAssistant()
	s.err = errors.New("boom")
	c := Restore(a, Record{ID: "c1", Title: "t", Messages: history(11)})
	before := c.Messages()

	_, err := c.Send(context.Background(), "next", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSummarization)

	assert.Empty(t, r.calls, "responder is not called")
	assert.Equal(t, before, c.Messages())
}

func TestSendResponderErrorBecomesReply(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "response error",
			err:  &ResponseError{Message: "You have exceeded your request limit.", Err: errors.New("429")},
			want: "You have exceeded your request limit.",
		},
		{
			name: "plain error",
			err:  errors.New("network down"),
			want: "network down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, r, _ := newAssistant()
			r.err = tt.err
			c := NewConversation(a)

			turn, err := c.Send(context.Background(), "hello", nil)
			require.NoError(t, err)
			assert.ErrorIs(t, turn.ResponseErr, tt.err)
			assert.Equal(t, tt.want, turn.Reply.Text)

			msgs := c.Messages()
			require.Len(t, msgs, 3)
			assert.Equal(t, RoleModel, msgs[2].Role)
			assert.Equal(t, tt.want, msgs[2].Text)
		})
	}
}

func TestResponseErrorMatchesSentinel(t *testing.T) {
	cause := errors.New("cause")
	err := error(&ResponseError{Message: "shown", Err: cause})
	assert.ErrorIs(t, err, ErrResponse)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "shown", err.Error())
}

func TestEditTruncatesAndReplies(t *testing.T) {
	a, r, s := newAssistant()
	c := Restore(a, Record{ID: "c1", Title: "t", Messages: history(11)})
	msgs := c.Messages()
	target := msgs[3] // m3, a user message

	turn, err := c.Edit(context.Background(), target.ID, "rewritten")
	require.NoError(t, err)

	assert.Empty(t, s.calls, "edits never compact")
	require.Len(t, r.calls, 1)
	assert.Equal(t, texts(msgs[1:3]), texts(r.calls[0].context))
	assert.Equal(t, "rewritten", r.calls[0].msg.Text)
	assert.Nil(t, r.calls[0].msg.File)

	got := c.Messages()
	assert.Equal(t, []string{WelcomeText, "m1", "m2", "rewritten", "re: rewritten"}, texts(got))
	assert.Equal(t, turn.Reply, got[4])
	assert.NotEqual(t, target.ID, got[3].ID)
}

func TestEditErrors(t *testing.T) {
	a, _, _ := newAssistant()
	c := Restore(a, Record{ID: "c1", Title: "t", Messages: history(3)})
	msgs := c.Messages()

	_, err := c.Edit(context.Background(), "missing", "x")
	assert.ErrorIs(t, err, ErrMessageNotFound)

	_, err = c.Edit(context.Background(), msgs[2].ID, "x")
	assert.ErrorIs(t, err, ErrMessageNotFound, "model messages cannot be edited")

	_, err = c.Edit(context.Background(), msgs[1].ID, "")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	assert.Equal(t, msgs, c.Messages())
}

func TestSuggest(t *testing.T) {
	a, _, _ := newAssistant()
	sg := &fakeSuggester{}
	a.Suggester = sg
	c := NewConversation(a)

	got, err := c.Suggest(context.Background(), "too short")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, sg.drafts)

	draft := "how do I configure"
	got, err = c.Suggest(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, []string{strings.ToUpper(draft)}, got)
}

func TestSuggestCountsCharacters(t *testing.T) {
	a, _, _ := newAssistant()
	sg := &fakeSuggester{}
	a.Suggester = sg
	c := NewConversation(a)

	// nine runes, more than ten bytes
	got, err := c.Suggest(context.Background(), "héllo wör")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = c.Suggest(context.Background(), "héllo wörl")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSuggestWithoutSuggester(t *testing.T) {
	a, _, _ := newAssistant()
	got, err := NewConversation(a).Suggest(context.Background(), "long enough draft")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReport(t *testing.T) {
	a, _, _ := newAssistant()
	c := Restore(a, Record{ID: "c1", Title: "t", Messages: history(2)})
	msgs := c.Messages()

	r, err := c.Report(msgs[2].ID)
	require.NoError(t, err)
	assert.Equal(t, msgs[2], r.Message)
	require.NotNil(t, r.Query)
	assert.Equal(t, msgs[1], *r.Query)

	r, err = c.Report(msgs[0].ID)
	require.NoError(t, err)
	assert.Nil(t, r.Query)

	_, err = c.Report("missing")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestModelContextDropsWelcome(t *testing.T) {
	h := history(2)
	h = append(h, NewMessage(RoleModel, "Hello! I am Velmora AI again"))

	got := ModelContext(h)
	assert.Equal(t, []string{"m1", "m2"}, texts(got))
}
