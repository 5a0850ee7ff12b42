package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	def := Default()
	if cfg.Speech.Voice != def.Speech.Voice {
		t.Errorf("voice = %q, want default %q", cfg.Speech.Voice, def.Speech.Voice)
	}
	if cfg.Model.MaxTokens != def.Model.MaxTokens {
		t.Errorf("max_tokens = %d, want default %d", cfg.Model.MaxTokens, def.Model.MaxTokens)
	}
	if cfg.Redis.Enabled() {
		t.Error("redis must be disabled by default")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
model:
  name: gpt-4o-mini
  temperature: 0.4
  max_tokens: 600
  timeout_sec: 20
speech:
  voice: en-GB-SoniaNeural
redis:
  addr: localhost:6379
  ttl_hours: 48
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Model.Name != "gpt-4o-mini" {
		t.Errorf("model name = %q, want gpt-4o-mini", cfg.Model.Name)
	}
	if cfg.Model.Temperature != 0.4 {
		t.Errorf("temperature = %v, want 0.4", cfg.Model.Temperature)
	}
	if cfg.Speech.Voice != "en-GB-SoniaNeural" {
		t.Errorf("voice = %q, want en-GB-SoniaNeural", cfg.Speech.Voice)
	}
	if !cfg.Redis.Enabled() {
		t.Error("redis addr set, Enabled() must be true")
	}
	if got := cfg.Redis.TTL().Hours(); got != 48 {
		t.Errorf("ttl = %v hours, want 48", got)
	}

	// Fields the file doesn't mention keep their defaults.
	if cfg.Listen.WhisperBin != Default().Listen.WhisperBin {
		t.Errorf("whisper_bin = %q, want default", cfg.Listen.WhisperBin)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
model:
  name: from-file
speech:
  voice: en-US-AvaNeural
`)

	t.Setenv(EnvChatModel, "from-env")
	t.Setenv(EnvVoice, "en-IN-NeerjaNeural")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Model.Name != "from-env" {
		t.Errorf("model name = %q, env must win over file", cfg.Model.Name)
	}
	if cfg.Speech.Voice != "en-IN-NeerjaNeural" {
		t.Errorf("voice = %q, env must win over file", cfg.Speech.Voice)
	}
	if cfg.Redis.URL != "redis://localhost:6379/2" {
		t.Errorf("redis url = %q, want env value", cfg.Redis.URL)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "model: [broken: {")
	if _, err := Load(path); err == nil {
		t.Fatal("malformed YAML must be an error, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults pass", func(*Config) {}, nil},
		{"temperature too high", func(c *Config) { c.Model.Temperature = 2.5 }, ErrInvalidTemperature},
		{"negative temperature", func(c *Config) { c.Model.Temperature = -0.1 }, ErrInvalidTemperature},
		{"zero max tokens", func(c *Config) { c.Model.MaxTokens = 0 }, ErrInvalidMaxTokens},
		{"zero timeout", func(c *Config) { c.Model.TimeoutSec = 0 }, ErrInvalidTimeout},
		{"zero record secs", func(c *Config) { c.Listen.RecordSecs = 0 }, ErrInvalidRecordSecs},
		{"threshold above one", func(c *Config) { c.Wakeword.Threshold = 1.2 }, ErrInvalidThreshold},
		{"zero ttl", func(c *Config) { c.Redis.TTLHours = 0 }, ErrInvalidTTL},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, ErrInvalidLogLevel},
		{"blank log level ok", func(c *Config) { c.Logging.Level = "" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSessionTTLEnvOverride(t *testing.T) {
	t.Setenv(EnvSessionTTL, "6")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Redis.TTLHours != 6 {
		t.Errorf("ttl_hours = %d, want 6 from env", cfg.Redis.TTLHours)
	}

	// Garbage values are ignored, keeping the default.
	t.Setenv(EnvSessionTTL, "soon")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Redis.TTLHours != Default().Redis.TTLHours {
		t.Errorf("ttl_hours = %d, want default", cfg.Redis.TTLHours)
	}
}
