// ABOUTME: Chat collaborators backed by GenerateContent
// ABOUTME: Replies, history summaries and draft suggestions
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/cognira/velmora-go/pkg/chat"
)

const maxSuggestions = 3

// Respond answers msg given the prior conversation
func (c *Client) Respond(ctx context.Context, history []chat.Message, msg chat.Message) (string, error) {
	model := c.config.ChatModel
	if msg.File.IsVideo() {
		model = c.config.ProModel
	}

	contents := append(toContents(history), userContent(msg))
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(c.config.SystemInstruction, genai.RoleUser),
	}

	text, err := c.generate(ctx, model, contents, cfg)
	if err != nil {
		c.logger.Error("chat response failed", zap.String("model", model), zap.Error(err))
		return "", responseError(err)
	}
	return text, nil
}

// Summarize condenses messages into a memory for later turns
func (c *Client) Summarize(ctx context.Context, messages []chat.Message) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(summaryPrompt(messages), genai.RoleUser)}

	text, err := c.generate(ctx, c.config.ChatModel, contents, nil)
	if err != nil {
		c.logger.Warn("failed to summarize history", zap.Int("messages", len(messages)), zap.Error(err))
		return "", responseError(err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty summary")
	}
	return text, nil
}

// Suggest proposes up to three ways to continue draft
func (c *Client) Suggest(ctx context.Context, history []chat.Message, draft string) ([]string, error) {
	contents := append(toContents(history), genai.NewContentFromText(suggestPrompt(draft), genai.RoleUser))
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   suggestionSchema(),
	}

	text, err := c.generate(ctx, c.config.ChatModel, contents, cfg)
	if err != nil {
		return nil, err
	}
	return parseSuggestions(text)
}

func toContents(history []chat.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		if m.IsWelcome() {
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role(m.Role)))
	}
	return contents
}

func userContent(msg chat.Message) *genai.Content {
	parts := []*genai.Part{genai.NewPartFromText(msg.Text)}
	if msg.File != nil && len(msg.File.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(msg.File.Data, msg.File.MIMEType))
	}
	return genai.NewContentFromParts(parts, genai.RoleUser)
}

func role(r chat.Role) genai.Role {
	if r == chat.RoleModel {
		return genai.RoleModel
	}
	return genai.RoleUser
}

func summaryPrompt(messages []chat.Message) string {
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = fmt.Sprintf("%s: %s", m.Role, m.Text)
	}

	var b strings.Builder
	b.WriteString("Concisely summarize the key points, facts, user intentions, and outcomes from the following conversation excerpt. ")
	b.WriteString("This summary will serve as a memory for an AI to seamlessly continue the conversation. ")
	b.WriteString("Focus on information density and preserving the conversational context.\n\n")
	b.WriteString("CONVERSATION EXCERPT:\n---\n")
	b.WriteString(strings.Join(lines, "\n\n"))
	b.WriteString("\n---\n\nCONCISE SUMMARY:")
	return b.String()
}

func suggestPrompt(draft string) string {
	return fmt.Sprintf("Based on the conversation history, suggest 3 different ways to phrase or continue the user's current message.\n"+
		"The user is currently typing: %q\n"+
		"Return a JSON object with a single key \"suggestions\" which is an array of 3 strings.", draft)
}

func suggestionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"suggestions": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
	}
}

func parseSuggestions(text string) ([]string, error) {
	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &out); err != nil {
		return nil, fmt.Errorf("parse suggestions: %w", err)
	}
	if len(out.Suggestions) > maxSuggestions {
		out.Suggestions = out.Suggestions[:maxSuggestions]
	}
	return out.Suggestions, nil
}
