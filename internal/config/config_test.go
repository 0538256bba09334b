// ABOUTME: Tests for configuration loading and validation
// ABOUTME: Covers TOML decoding, environment overrides and validation messages
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognira/velmora-go/internal/gemini"
	"github.com/cognira/velmora-go/pkg/chat"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, TransportGenAI, cfg.Transport)
	assert.Equal(t, gemini.DefaultLiveModel, cfg.LiveModel)
	assert.Equal(t, 12, cfg.Compaction.Threshold)
	assert.Equal(t, 8, cfg.Compaction.Window)
	assert.Equal(t, 100, cfg.Volume)
	assert.True(t, cfg.History.Save)
	assert.NotEmpty(t, cfg.History.Path)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "velmora.toml", `
api_key = "from-file"
transport = "websocket"
chat_model = "gemini-custom"
request_timeout = "45s"
volume = 70

[compaction]
threshold = 20
window = 10

[history]
save = false

[log]
file = "velmora.log"
debug = true
`)

	cfg := Default()
	require.NoError(t, LoadTOML(cfg, path))

	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, TransportWebsocket, cfg.Transport)
	assert.Equal(t, "gemini-custom", cfg.ChatModel)
	assert.Equal(t, gemini.DefaultProModel, cfg.ProModel, "unset keys keep defaults")
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 70, cfg.Volume)
	assert.Equal(t, 20, cfg.Compaction.Threshold)
	assert.Equal(t, 10, cfg.Compaction.Window)
	assert.False(t, cfg.History.Save)
	assert.Equal(t, "velmora.log", cfg.Log.File)
	assert.True(t, cfg.Log.Debug)
}

func TestLoadTOMLRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "bad.toml", `api_kee = "typo"`)
	err := LoadTOML(Default(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_kee")
}

func TestLoadTOMLMissingFile(t *testing.T) {
	assert.Error(t, LoadTOML(Default(), filepath.Join(t.TempDir(), "none.toml")))
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name  string
		vars  map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "gemini key preferred",
			vars: map[string]string{"API_KEY": "generic", "GEMINI_API_KEY": "gemini"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "gemini", cfg.APIKey)
			},
		},
		{
			name: "generic key",
			vars: map[string]string{"API_KEY": "generic"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "generic", cfg.APIKey)
			},
		},
		{
			name: "models and transport",
			vars: map[string]string{
				"VELMORA_TRANSPORT":  "websocket",
				"VELMORA_LIVE_MODEL": "live-x",
				"VELMORA_CHAT_MODEL": "chat-x",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, TransportWebsocket, cfg.Transport)
				assert.Equal(t, "live-x", cfg.LiveModel)
				assert.Equal(t, "chat-x", cfg.ChatModel)
			},
		},
		{
			name: "history and timeout",
			vars: map[string]string{
				"VELMORA_SAVE_HISTORY":    "false",
				"VELMORA_HISTORY_FILE":    "/tmp/h.json",
				"VELMORA_REQUEST_TIMEOUT": "3s",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.History.Save)
				assert.Equal(t, "/tmp/h.json", cfg.History.Path)
				assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
			},
		},
		{
			name: "empty values ignored",
			vars: map[string]string{"VELMORA_VOICE": ""},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, gemini.DefaultVoice, cfg.Voice)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, applyEnv(cfg, env(tt.vars)))
			tt.check(t, cfg)
		})
	}
}

func TestApplyEnvInvalidValues(t *testing.T) {
	assert.Error(t, applyEnv(Default(), env(map[string]string{"VELMORA_SAVE_HISTORY": "maybe"})))
	assert.Error(t, applyEnv(Default(), env(map[string]string{"VELMORA_REQUEST_TIMEOUT": "soon"})))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.APIKey = "key"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing key", func(c *Config) { c.APIKey = "" }, "api_key is required"},
		{"bad transport", func(c *Config) { c.Transport = "grpc" }, "transport must be one of: genai websocket"},
		{"volume range", func(c *Config) { c.Volume = 150 }, "volume must be less than or equal to 100"},
		{"bad endpoint", func(c *Config) { c.Endpoint = "not a url" }, "endpoint must be a valid URL"},
		{"history path", func(c *Config) { c.History.Path = "" }, "history.path is required"},
		{"history path not needed", func(c *Config) { c.History = HistoryConfig{} }, ""},
		{"window too large", func(c *Config) { c.Compaction.Window = 12 }, "compaction.window must be less than compaction.threshold"},
		{"threshold too small", func(c *Config) { c.Compaction = chat.Policy{Threshold: 1, Window: 0} }, "compaction.threshold must be greater than or equal to 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGeminiConfig(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "key"

	g, err := cfg.Gemini()
	require.NoError(t, err)
	assert.Equal(t, "key", g.APIKey)
	assert.Empty(t, g.SystemInstruction, "built-in persona is used")

	cfg.SystemInstructionFile = writeFile(t, "persona.md", "Be terse.")
	g, err = cfg.Gemini()
	require.NoError(t, err)
	assert.Equal(t, "Be terse.", g.SystemInstruction)

	cfg.SystemInstructionFile = filepath.Join(t.TempDir(), "missing.md")
	_, err = cfg.Gemini()
	assert.Error(t, err)
}
