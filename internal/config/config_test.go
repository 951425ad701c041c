package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.MaxRecord != 10*time.Second {
		t.Errorf("MaxRecord = %s, want 10s", cfg.MaxRecord)
	}
	if cfg.TranscribeTimeout != 10*time.Second {
		t.Errorf("TranscribeTimeout = %s, want 10s", cfg.TranscribeTimeout)
	}
	if cfg.ResumeDelay != 900*time.Millisecond {
		t.Errorf("ResumeDelay = %s, want 900ms", cfg.ResumeDelay)
	}
	if cfg.MaxEmptyTranscriptions != 5 {
		t.Errorf("MaxEmptyTranscriptions = %d, want 5", cfg.MaxEmptyTranscriptions)
	}
	if cfg.RecipeLimit != 4 {
		t.Errorf("RecipeLimit = %d, want 4", cfg.RecipeLimit)
	}
	if cfg.CatalogLimit != 50 {
		t.Errorf("CatalogLimit = %d, want 50", cfg.CatalogLimit)
	}
	if cfg.StoreDriver != StoreMemory {
		t.Errorf("StoreDriver = %q, want memory", cfg.StoreDriver)
	}
}

func TestLoad_PrefixedAndBareNames(t *testing.T) {
	t.Setenv("AZURE_SPEECH_KEY", "bare-key")
	t.Setenv("AZURE_SPEECH_REGION", "westeurope")
	t.Setenv("PANTRY_RESUME_DELAY", "1s")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}
	if cfg.AzureSpeechKey != "bare-key" {
		t.Errorf("AzureSpeechKey = %q, want bare-key", cfg.AzureSpeechKey)
	}
	if cfg.ResumeDelay != time.Second {
		t.Errorf("ResumeDelay = %s, want 1s", cfg.ResumeDelay)
	}
	if !cfg.TTSEnabled() {
		t.Error("TTSEnabled() = false with azure credentials set")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv() failed: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults ok", func(*Config) {}, ""},
		{"recipe limit too high", func(c *Config) { c.RecipeLimit = 5 }, "RECIPE_LIMIT"},
		{"catalog limit too high", func(c *Config) { c.CatalogLimit = 51 }, "CATALOG_LIMIT"},
		{"zero record ceiling", func(c *Config) { c.MaxRecord = 0 }, "MAX_RECORD"},
		{"negative retry cap", func(c *Config) { c.MaxEmptyTranscriptions = -1 }, "MAX_EMPTY_TRANSCRIPTIONS"},
		{"unbounded retry cap allowed", func(c *Config) { c.MaxEmptyTranscriptions = 0 }, ""},
		{"postgres without url", func(c *Config) { c.StoreDriver = StorePostgres }, "DATABASE_URL"},
		{"unknown store", func(c *Config) { c.StoreDriver = "redis" }, "unknown STORE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
