// ABOUTME: genai SDK client shared by the chat and live adapters
// ABOUTME: Holds model names, the system instruction and request timeouts
package gemini

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	DefaultLiveModel = "gemini-2.5-flash-native-audio-preview-09-2025"
	DefaultChatModel = "gemini-2.5-flash"
	DefaultProModel  = "gemini-2.5-pro"
	DefaultVoice     = "Zephyr"

	defaultTimeout = 2 * time.Minute
)

// SystemInstruction is the default persona for chat responses
const SystemInstruction = `# Velmora AI Personality and Style Guide
You are Velmora AI, a sophisticated and helpful assistant from Cognira. Your primary goal is to provide accurate information based on your knowledge base, but your style should be natural, friendly, and conversational.
- **Tone:** Be helpful, confident, and approachable. Avoid robotic and overly formal language.
- **Persona:** Act as a knowledgeable expert who is happy to help.
- **Instruction:** When answering, synthesize the information into a natural answer. Do not mention that you are using a knowledge base.
---
# Handling General Knowledge & Out-of-Domain Questions
If a user asks a general knowledge question, do not refuse to answer. Provide a helpful, accurate, and educational response based on your general training, then gently guide the conversation back to your core functions.`

// Config selects models and behavior for the adapters
type Config struct {
	APIKey string

	// LiveModel serves realtime voice sessions
	LiveModel string

	// ChatModel answers text turns, summarizes and suggests
	ChatModel string

	// ProModel answers turns with a video attachment
	ProModel string

	// Voice is the prebuilt voice for live sessions
	Voice string

	// SystemInstruction overrides the chat persona
	SystemInstruction string

	// Timeout bounds each generate request
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.LiveModel == "" {
		c.LiveModel = DefaultLiveModel
	}
	if c.ChatModel == "" {
		c.ChatModel = DefaultChatModel
	}
	if c.ProModel == "" {
		c.ProModel = DefaultProModel
	}
	if c.Voice == "" {
		c.Voice = DefaultVoice
	}
	if c.SystemInstruction == "" {
		c.SystemInstruction = SystemInstruction
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

// Client implements chat.Responder, chat.Summarizer and chat.Suggester,
// and hands out a live.Transport through Live.
type Client struct {
	client *genai.Client
	config Config
	logger *zap.Logger
}

// New creates a Gemini API client
func New(ctx context.Context, config Config, logger *zap.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	config = config.withDefaults()
	logger.Info("gemini client ready",
		zap.String("chat_model", config.ChatModel),
		zap.String("live_model", config.LiveModel))

	return &Client{client: client, config: config, logger: logger}, nil
}

// generate runs one GenerateContent call bounded by the configured timeout
func (c *Client) generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", err
	}

	text := resp.Text()
	c.logger.Debug("generate complete",
		zap.String("model", model),
		zap.Int("contents", len(contents)),
		zap.Int("chars", len(text)),
		zap.Duration("took", time.Since(start)))
	return text, nil
}
