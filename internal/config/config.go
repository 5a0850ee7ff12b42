// Package config loads the assistant's tunable settings: baked-in
// defaults, overlaid by an optional YAML file, overlaid by environment
// variables. Secrets (API keys) never live in the file; main reads
// those straight from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Env var names for secrets and overrides. Secrets are read by main;
// the override names are applied here on top of the file values.
const (
	EnvChatKey      = "CHAT_API_KEY"
	EnvChatEndpoint = "CHAT_ENDPOINT"
	EnvChatModel    = "CHAT_MODEL"
	EnvVoice        = "ASSISTANT_VOICE"
	EnvLogLevel     = "ASSISTANT_LOG_LEVEL"
	EnvRedisURL     = "REDIS_URL"
	EnvRedisAddr    = "REDIS_ADDR"
	EnvSessionTTL   = "SESSION_TTL_HOURS"
)

// Validation errors.
var (
	ErrInvalidTemperature = errors.New("model.temperature must be between 0 and 2")
	ErrInvalidMaxTokens   = errors.New("model.max_tokens must be at least 1")
	ErrInvalidTimeout     = errors.New("model.timeout_sec must be at least 1")
	ErrInvalidRecordSecs  = errors.New("listen.record_secs must be at least 1")
	ErrInvalidThreshold   = errors.New("wakeword.threshold must be between 0 and 1")
	ErrInvalidTTL         = errors.New("redis.ttl_hours must be at least 1")
	ErrInvalidLogLevel    = errors.New("logging.level must be one of: off, quiet, normal, verbose, debug")
)

// Config is the full set of non-secret tunables.
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Speech   SpeechConfig   `yaml:"speech"`
	Listen   ListenConfig   `yaml:"listen"`
	Wakeword WakewordConfig `yaml:"wakeword"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ModelConfig tunes the chat-completion client.
type ModelConfig struct {
	// Name is sent as the model field. Leave blank for Azure-style
	// endpoints where the deployment is part of the URL.
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// Timeout returns the HTTP timeout as a duration.
func (m ModelConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSec) * time.Second
}

// SpeechConfig tunes text-to-speech output.
type SpeechConfig struct {
	Voice    string `yaml:"voice"`
	CacheDir string `yaml:"cache_dir"`
}

// ListenConfig tunes whisper-based voice input.
type ListenConfig struct {
	WhisperBin   string `yaml:"whisper_bin"`
	WhisperModel string `yaml:"whisper_model"`
	RecordSecs   int    `yaml:"record_secs"`
}

// RecordDuration returns the per-chunk recording window.
func (l ListenConfig) RecordDuration() time.Duration {
	return time.Duration(l.RecordSecs) * time.Second
}

// WakewordConfig points at the ONNX models for hands-free activation.
type WakewordConfig struct {
	Model          string  `yaml:"model"`
	MelspecModel   string  `yaml:"melspec_model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	OnnxLib        string  `yaml:"onnx_lib"`
	Threshold      float64 `yaml:"threshold"`
}

// RedisConfig selects the session backend. Both fields empty means
// sessions stay in memory. URL, when set, wins over Addr.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Addr     string `yaml:"addr"`
	TTLHours int    `yaml:"ttl_hours"`
}

// Enabled reports whether a Redis backend is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Addr != ""
}

// TTL returns the session expiry as a duration.
func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLHours) * time.Hour
}

// LoggingConfig tunes log output. Level accepts the same strings as
// logger.ParseLevel; File "stderr" keeps logs on the console.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Temperature: 0.7,
			MaxTokens:   900,
			TimeoutSec:  30,
		},
		Speech: SpeechConfig{
			Voice:    "en-US-AvaNeural",
			CacheDir: ".assistant-cache",
		},
		Listen: ListenConfig{
			WhisperBin:   "whisper-cli",
			WhisperModel: "bin/ggml-small.bin",
			RecordSecs:   2,
		},
		Wakeword: WakewordConfig{
			Model:          "models/hey_cook.onnx",
			MelspecModel:   "bin/melspectrogram.onnx",
			EmbeddingModel: "bin/embedding_model.onnx",
			OnnxLib:        "bin/libonnxruntime.so",
			Threshold:      0.3,
		},
		Redis: RedisConfig{
			TTLHours: 24,
		},
		Logging: LoggingConfig{
			Level: "normal",
			File:  ".assistant-logs/assistant.log",
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file
// at path (skipped when missing), then environment overrides. The
// result is validated before being returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// The file is optional.
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// applyEnv layers environment overrides on top of the file values.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvChatModel); v != "" {
		c.Model.Name = v
	}
	if v := os.Getenv(EnvVoice); v != "" {
		c.Speech.Voice = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(EnvSessionTTL); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.TTLHours = n
		}
	}
}

// Validate checks the tunables that have hard ranges.
func (c *Config) Validate() error {
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return ErrInvalidTemperature
	}
	if c.Model.MaxTokens < 1 {
		return ErrInvalidMaxTokens
	}
	if c.Model.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}
	if c.Listen.RecordSecs < 1 {
		return ErrInvalidRecordSecs
	}
	if c.Wakeword.Threshold <= 0 || c.Wakeword.Threshold > 1 {
		return ErrInvalidThreshold
	}
	if c.Redis.TTLHours < 1 {
		return ErrInvalidTTL
	}

	switch c.Logging.Level {
	case "off", "quiet", "normal", "verbose", "debug", "":
	default:
		return ErrInvalidLogLevel
	}
	return nil
}
