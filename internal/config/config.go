// ABOUTME: Application configuration for the velmora and contexta binaries
// ABOUTME: Defaults, then TOML file, then .env and environment, then flags
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/cognira/velmora-go/internal/gemini"
	"github.com/cognira/velmora-go/pkg/chat"
)

const (
	TransportGenAI     = "genai"
	TransportWebsocket = "websocket"

	defaultEnvFile = ".env"
)

// Config holds every setting of both binaries
type Config struct {
	// APIKey authenticates against the Gemini API
	APIKey string `toml:"api_key" validate:"required"`

	// Transport selects the live backend: genai or websocket
	Transport string `toml:"transport" validate:"oneof=genai websocket"`

	// Endpoint overrides the websocket endpoint
	Endpoint string `toml:"endpoint" validate:"omitempty,url"`

	LiveModel string `toml:"live_model" validate:"required"`
	ChatModel string `toml:"chat_model" validate:"required"`
	ProModel  string `toml:"pro_model" validate:"required"`
	Voice     string `toml:"voice" validate:"required"`

	// SystemInstructionFile replaces the built-in chat persona
	SystemInstructionFile string `toml:"system_instruction_file"`

	// RequestTimeout bounds each chat request, e.g. "90s"
	RequestTimeout time.Duration `toml:"request_timeout" validate:"gte=0"`

	// Volume is the initial playback volume
	Volume int `toml:"volume" validate:"gte=0,lte=100"`

	Compaction chat.Policy   `toml:"compaction"`
	History    HistoryConfig `toml:"history"`
	Log        LogConfig     `toml:"log"`
}

// HistoryConfig controls chat persistence
type HistoryConfig struct {
	Save bool   `toml:"save"`
	Path string `toml:"path" validate:"required_if=Save true"`
}

// LogConfig controls logging
type LogConfig struct {
	File  string `toml:"file"`
	Debug bool   `toml:"debug"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Transport:  TransportGenAI,
		LiveModel:  gemini.DefaultLiveModel,
		ChatModel:  gemini.DefaultChatModel,
		ProModel:   gemini.DefaultProModel,
		Voice:      gemini.DefaultVoice,
		Volume:     100,
		Compaction: chat.DefaultPolicy(),
		History: HistoryConfig{
			Save: true,
			Path: defaultHistoryPath(),
		},
	}
}

func defaultHistoryPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "velmora-history.json"
	}
	return filepath.Join(dir, "velmora", "history.json")
}

// Load builds the configuration from defaults, the TOML file at path (if
// any), the .env file in the working directory and the process environment.
// Flags are applied by the caller; call Validate afterwards.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", defaultEnvFile, err)
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
	}
	return nil
}

// applyEnv overrides cfg from environment variables
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	// GEMINI_API_KEY wins over the generic API_KEY
	for _, key := range []string{"API_KEY", "GEMINI_API_KEY"} {
		if v, ok := lookup(key); ok && v != "" {
			cfg.APIKey = v
		}
	}

	overrides := map[string]*string{
		"VELMORA_TRANSPORT":    &cfg.Transport,
		"VELMORA_ENDPOINT":     &cfg.Endpoint,
		"VELMORA_LIVE_MODEL":   &cfg.LiveModel,
		"VELMORA_CHAT_MODEL":   &cfg.ChatModel,
		"VELMORA_PRO_MODEL":    &cfg.ProModel,
		"VELMORA_VOICE":        &cfg.Voice,
		"VELMORA_HISTORY_FILE": &cfg.History.Path,
		"VELMORA_LOG_FILE":     &cfg.Log.File,
	}
	for key, dst := range overrides {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("VELMORA_SAVE_HISTORY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("VELMORA_SAVE_HISTORY: %w", err)
		}
		cfg.History.Save = b
	}
	if v, ok := lookup("VELMORA_REQUEST_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("VELMORA_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}

// SystemInstruction returns the contents of SystemInstructionFile, or ""
// when the built-in persona should be used.
func (c *Config) SystemInstruction() (string, error) {
	if c.SystemInstructionFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.SystemInstructionFile)
	if err != nil {
		return "", fmt.Errorf("failed to read system instruction: %w", err)
	}
	return string(data), nil
}

// Gemini returns the adapter configuration
func (c *Config) Gemini() (gemini.Config, error) {
	instruction, err := c.SystemInstruction()
	if err != nil {
		return gemini.Config{}, err
	}
	return gemini.Config{
		APIKey:            c.APIKey,
		LiveModel:         c.LiveModel,
		ChatModel:         c.ChatModel,
		ProModel:          c.ProModel,
		Voice:             c.Voice,
		SystemInstruction: instruction,
		Timeout:           c.RequestTimeout,
	}, nil
}
