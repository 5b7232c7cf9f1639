// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sakura-ramen/voice-agent/internal/guardrail"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string

	OpenAI     OpenAIConfig
	Restaurant RestaurantConfig
	Audio      AudioConfig
	Guardrail  guardrail.Limits

	// ToolTimeout bounds a single tool call so a slow database cannot
	// stall the event loop's function-output turn.
	ToolTimeout time.Duration
}

// OpenAIConfig holds the realtime API connection and model settings.
type OpenAIConfig struct {
	APIKey      string
	RealtimeURL string
	Model       string
	Voice       string
	Temperature float64

	// Server-side voice activity detection.
	VADThreshold      float64
	VADPrefixPadding  time.Duration
	VADSilenceTimeout time.Duration
}

// RestaurantConfig is the identity baked into agent instructions and
// info tools.
type RestaurantConfig struct {
	Name      string
	Phone     string
	Address   string
	MaxSeated int // largest party bookable without calling the restaurant
}

// AudioConfig holds the PCM stream parameters shared by both directions.
type AudioConfig struct {
	SampleRate   int           // samples per second, 16-bit mono
	MaxFrameSize int           // largest audio payload per websocket frame, bytes
	HandoffPause time.Duration // silence inserted while a specialist takes over
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/reservations.db"),
		OpenAI: OpenAIConfig{
			APIKey:            getEnv("OPENAI_API_KEY", ""),
			RealtimeURL:       getEnv("OPENAI_REALTIME_URL", "wss://api.openai.com/v1/realtime"),
			Model:             getEnv("OPENAI_REALTIME_MODEL", "gpt-4o-realtime-preview-2024-12-17"),
			Voice:             getEnv("OPENAI_VOICE", "verse"),
			Temperature:       getEnvFloat("OPENAI_TEMPERATURE", 0.8),
			VADThreshold:      getEnvFloat("VAD_THRESHOLD", 0.5),
			VADPrefixPadding:  time.Duration(getEnvInt("VAD_PREFIX_PADDING_MS", 300)) * time.Millisecond,
			VADSilenceTimeout: time.Duration(getEnvInt("VAD_SILENCE_MS", 500)) * time.Millisecond,
		},
		Restaurant: RestaurantConfig{
			Name:      getEnv("RESTAURANT_NAME", "Sakura Ramen House"),
			Phone:     getEnv("RESTAURANT_PHONE", "+65 6877 9888"),
			Address:   getEnv("RESTAURANT_ADDRESS", "78 Boat Quay, Singapore 049866"),
			MaxSeated: getEnvInt("RESTAURANT_MAX_SEATED", 8),
		},
		Audio: AudioConfig{
			SampleRate:   24000,
			MaxFrameSize: getEnvInt("AUDIO_MAX_FRAME_BYTES", 300*1024),
			HandoffPause: time.Duration(getEnvInt("HANDOFF_PAUSE_MS", 2000)) * time.Millisecond,
		},
		Guardrail: guardrail.Limits{
			MaxInputLength:  getEnvInt("GUARDRAIL_MAX_INPUT_LENGTH", 5000),
			MaxPartySize:    getEnvInt("GUARDRAIL_MAX_PARTY_SIZE", 50),
			MaxPhoneNumbers: getEnvInt("GUARDRAIL_MAX_PHONE_NUMBERS", 3),
			MaxEmails:       getEnvInt("GUARDRAIL_MAX_EMAILS", 2),
		},
		ToolTimeout: time.Duration(getEnvInt("TOOL_TIMEOUT_MS", 10000)) * time.Millisecond,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY cannot be empty")
	}
	if c.OpenAI.RealtimeURL == "" {
		return fmt.Errorf("OPENAI_REALTIME_URL cannot be empty")
	}
	if c.OpenAI.Model == "" {
		return fmt.Errorf("OPENAI_REALTIME_MODEL cannot be empty")
	}
	if c.Audio.MaxFrameSize <= 0 {
		return fmt.Errorf("AUDIO_MAX_FRAME_BYTES must be > 0")
	}
	if c.ToolTimeout <= 0 {
		return fmt.Errorf("TOOL_TIMEOUT_MS must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}
