// Package config loads runtime settings from the environment. A .env file
// in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable name. Unprefixed names are accepted
// as a fallback, so AZURE_SPEECH_KEY and PANTRY_AZURE_SPEECH_KEY both work.
const Prefix = "PANTRY"

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config holds all configuration for the assistant.
type Config struct {
	// Turn loop
	MaxRecord              time.Duration `envconfig:"MAX_RECORD" default:"10s"`
	TranscribeTimeout      time.Duration `envconfig:"TRANSCRIBE_TIMEOUT" default:"10s"`
	ResumeDelay            time.Duration `envconfig:"RESUME_DELAY" default:"900ms"`
	MaxEmptyTranscriptions int           `envconfig:"MAX_EMPTY_TRANSCRIPTIONS" default:"5"` // 0 = keep trying
	ReacquireAttempts      int           `envconfig:"REACQUIRE_ATTEMPTS" default:"3"`
	ReacquireBackoff       time.Duration `envconfig:"REACQUIRE_BACKOFF" default:"500ms"`
	ReleaseGrace           time.Duration `envconfig:"RELEASE_GRACE" default:"150ms"`
	SampleRate             int           `envconfig:"CAPTURE_SAMPLE_RATE" default:"16000"`

	// Matcher
	RecipeLimit  int `envconfig:"RECIPE_LIMIT" default:"4"`
	CatalogLimit int `envconfig:"CATALOG_LIMIT" default:"50"`
	ContextLimit int `envconfig:"CONTEXT_LIMIT" default:"20"`

	// Speech-to-text
	STTURL       string `envconfig:"STT_URL" default:""` // remote transcription service
	OpenAIKey    string `envconfig:"OPENAI_API_KEY" default:""`
	WhisperBin   string `envconfig:"WHISPER_BIN" default:"whisper-cli"`
	WhisperModel string `envconfig:"WHISPER_MODEL" default:"bin/ggml-small.bin"`
	STTTempDir   string `envconfig:"STT_TEMP_DIR" default:".pantry-stt"`

	// Text-to-speech
	AzureSpeechKey    string `envconfig:"AZURE_SPEECH_KEY" default:""`
	AzureSpeechRegion string `envconfig:"AZURE_SPEECH_REGION" default:""`
	ElevenLabsKey     string `envconfig:"ELEVENLABS_API_KEY" default:""`
	ElevenLabsVoice   string `envconfig:"ELEVENLABS_VOICE" default:""`
	Voice             string `envconfig:"VOICE" default:"en-US-AvaNeural"`
	CacheDir          string `envconfig:"CACHE_DIR" default:".pantry-cache"`
	DiskCache         bool   `envconfig:"DISK_CACHE" default:"true"`

	// Generation
	GPTChatEndpoint string  `envconfig:"GPT_CHAT_ENDPOINT" default:""`
	GPTChatKey      string  `envconfig:"GPT_CHAT_KEY" default:""`
	OpenAIModel     string  `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	GeminiKey       string  `envconfig:"GEMINI_API_KEY" default:""`
	GeminiModel     string  `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	GenerationRPS   float64 `envconfig:"GENERATION_RPS" default:"1"`

	// Item store
	StoreDriver string `envconfig:"STORE" default:"memory"`
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:".pantry/pantry.db"`

	// Web surface
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8090"`
	EnableWeb bool   `envconfig:"ENABLE_WEB" default:"true"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"false"`
	LogFile   string `envconfig:"LOG_FILE" default:".pantry-logs/pantry.log"`
}

// Load reads configuration from environment variables.
// It first attempts to load from .env file if it exists, then from environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load a .env file.
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and cross-field requirements.
func (c *Config) Validate() error {
	var errs []error

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"MAX_RECORD", c.MaxRecord},
		{"TRANSCRIBE_TIMEOUT", c.TranscribeTimeout},
		{"RESUME_DELAY", c.ResumeDelay},
		{"RELEASE_GRACE", c.ReleaseGrace},
	}
	for _, d := range durations {
		if d.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.name, d.d))
		}
	}

	if c.MaxEmptyTranscriptions < 0 {
		errs = append(errs, fmt.Errorf("MAX_EMPTY_TRANSCRIPTIONS must be >= 0, got %d", c.MaxEmptyTranscriptions))
	}
	if c.ReacquireAttempts < 1 {
		errs = append(errs, fmt.Errorf("REACQUIRE_ATTEMPTS must be >= 1, got %d", c.ReacquireAttempts))
	}
	if c.RecipeLimit < 1 || c.RecipeLimit > 4 {
		errs = append(errs, fmt.Errorf("RECIPE_LIMIT must be within 1..4, got %d", c.RecipeLimit))
	}
	if c.CatalogLimit < 1 || c.CatalogLimit > 50 {
		errs = append(errs, fmt.Errorf("CATALOG_LIMIT must be within 1..50, got %d", c.CatalogLimit))
	}
	if c.ContextLimit < 1 {
		errs = append(errs, fmt.Errorf("CONTEXT_LIMIT must be >= 1, got %d", c.ContextLimit))
	}
	if c.GenerationRPS <= 0 {
		errs = append(errs, fmt.Errorf("GENERATION_RPS must be positive, got %v", c.GenerationRPS))
	}

	switch c.StoreDriver {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE %q", c.StoreDriver))
	}

	return errors.Join(errs...)
}

// TTSEnabled reports whether any speech synthesizer has credentials.
func (c *Config) TTSEnabled() bool {
	return (c.AzureSpeechKey != "" && c.AzureSpeechRegion != "") || c.ElevenLabsKey != ""
}

// GenerationEnabled reports whether any LLM backend has credentials.
func (c *Config) GenerationEnabled() bool {
	return (c.GPTChatEndpoint != "" && c.GPTChatKey != "") || c.OpenAIKey != "" || c.GeminiKey != ""
}
