package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.ListenAddr != ":8002" {
		t.Fatalf("unexpected listen addr %q", cfg.ListenAddr)
	}
	if cfg.Espeak.Language != "en" {
		t.Fatalf("unexpected espeak language %q", cfg.Espeak.Language)
	}
	if cfg.ElevenLabs.Stability != 0.5 || cfg.ElevenLabs.Similarity != 0.8 {
		t.Fatalf("unexpected voice quality defaults: %+v", cfg.ElevenLabs)
	}
	if cfg.Breaker.Cooldown != 30*time.Second {
		t.Fatalf("unexpected breaker cooldown %v", cfg.Breaker.Cooldown)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VOICEGATE_LISTEN_ADDR", ":9999")
	t.Setenv("VOICEGATE_ESPEAK_LANGUAGE", "de")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Fatalf("env override not applied, got %q", cfg.ListenAddr)
	}
	if cfg.Espeak.Language != "de" {
		t.Fatalf("nested env override not applied, got %q", cfg.Espeak.Language)
	}
}

func TestLoadEnvOnlyKeys(t *testing.T) {
	// Credentials and the blob URL have no default, so they exercise the
	// explicit env bindings rather than the known-keys path.
	t.Setenv("VOICEGATE_OPENAI_API_KEY", "sk-test")
	t.Setenv("VOICEGATE_ELEVENLABS_API_KEY", "el-test")
	t.Setenv("VOICEGATE_BLOB_NATS_URL", "nats://127.0.0.1:4222")
	t.Setenv("VOICEGATE_PUBLIC_BASE_URL", "https://gw.example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Fatalf("openai.api_key from env not applied, got %q", cfg.OpenAI.APIKey)
	}
	if cfg.ElevenLabs.APIKey != "el-test" {
		t.Fatalf("elevenlabs.api_key from env not applied, got %q", cfg.ElevenLabs.APIKey)
	}
	if cfg.Blob.NATSURL != "nats://127.0.0.1:4222" {
		t.Fatalf("blob.nats_url from env not applied, got %q", cfg.Blob.NATSURL)
	}
	if cfg.PublicBaseURL != "https://gw.example.com" {
		t.Fatalf("public_base_url from env not applied, got %q", cfg.PublicBaseURL)
	}
}

func TestDecodeSettings(t *testing.T) {
	var out struct {
		Stability  float64 `mapstructure:"stability"`
		Similarity float64 `mapstructure:"similarity"`
	}
	in := map[string]any{"Stability": "0.7", "SIMILARITY": 0.9}
	if err := DecodeSettings(in, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Stability != 0.7 {
		t.Fatalf("weakly typed decode failed, got %v", out.Stability)
	}
	if out.Similarity != 0.9 {
		t.Fatalf("case-insensitive decode failed, got %v", out.Similarity)
	}
}
