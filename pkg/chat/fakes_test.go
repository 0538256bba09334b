// ABOUTME: Test doubles for the model collaborators
// ABOUTME: Record calls and return scripted results
package chat

import (
	"context"
	"fmt"
	"strings"
)

type fakeSummarizer struct {
	calls [][]Message
	err   error
}

func (f *fakeSummarizer) Summarize(_ context.Context, msgs []Message) (string, error) {
	f.calls = append(f.calls, clone(msgs))
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("summary of %d", len(msgs)), nil
}

type respondCall struct {
	context []Message
	msg     Message
}

type fakeResponder struct {
	calls []respondCall
	err   error
}

func (f *fakeResponder) Respond(_ context.Context, history []Message, msg Message) (string, error) {
	f.calls = append(f.calls, respondCall{context: clone(history), msg: msg})
	if f.err != nil {
		return "", f.err
	}
	return "re: " + msg.Text, nil
}

type fakeSuggester struct {
	drafts []string
}

func (f *fakeSuggester) Suggest(_ context.Context, _ []Message, draft string) ([]string, error) {
	f.drafts = append(f.drafts, draft)
	return []string{strings.ToUpper(draft)}, nil
}

func newAssistant() (*Assistant, *fakeResponder, *fakeSummarizer) {
	r := &fakeResponder{}
	s := &fakeSummarizer{}
	return &Assistant{Responder: r, Summarizer: s, Policy: DefaultPolicy()}, r, s
}

// history builds a welcome message followed by n alternating user/model messages
func history(n int) []Message {
	out := []Message{Welcome()}
	for i := 0; i < n; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleModel
		}
		out = append(out, NewMessage(role, fmt.Sprintf("m%d", i+1)))
	}
	return out
}

func texts(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}
