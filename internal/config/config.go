// Package config holds all concierge configuration: the LLM client,
// the embedding engine, database locations, session tuning, and
// logging. Configuration loads from a YAML file with environment
// overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"concierge/internal/embedding"
)

// Config holds all concierge configuration.
type Config struct {
	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Embedding engine for the policy retriever
	Embedding embedding.Config `yaml:"embedding"`

	// Retrieval corpus source
	Retrieval RetrievalConfig `yaml:"retrieval"`

	// Database locations
	Database DatabaseConfig `yaml:"database"`

	// Session tuning
	Session SessionConfig `yaml:"session"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the chat model.
type LLMConfig struct {
	APIKey          string  `yaml:"api_key"`
	Model           string  `yaml:"model"`
	BaseURL         string  `yaml:"base_url"`
	Timeout         string  `yaml:"timeout"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	Temperature     float64 `yaml:"temperature"`
}

// RetrievalConfig configures the policy corpus.
type RetrievalConfig struct {
	// CorpusSource is an http(s) URL or a local file path holding the
	// company policy manual.
	CorpusSource string `yaml:"corpus_source"`
}

// DatabaseConfig configures the SQLite files.
type DatabaseConfig struct {
	TravelPath     string `yaml:"travel_path"`
	CheckpointPath string `yaml:"checkpoint_path"`
}

// SessionConfig tunes the invocation wrapper and identifies the
// default signed-in passenger.
type SessionConfig struct {
	PassengerID   string `yaml:"passenger_id"`
	ContextWindow int    `yaml:"context_window"`
	MaxRetries    int    `yaml:"max_retries"`
	Backoff       string `yaml:"backoff"`
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	Level      string   `yaml:"level"` // debug, info, warn, error
	Categories []string `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:           "gemini-2.5-flash",
			BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
			Timeout:         "120s",
			MaxOutputTokens: 8192,
			Temperature:     1.0,
		},
		Embedding: embedding.DefaultConfig(),
		Retrieval: RetrievalConfig{
			CorpusSource: "https://storage.googleapis.com/benchmarks-artifacts/travel-db/swiss_faq.md",
		},
		Database: DatabaseConfig{
			TravelPath:     "data/travel.sqlite",
			CheckpointPath: "data/checkpoints.sqlite",
		},
		Session: SessionConfig{
			PassengerID:   "3442 587242",
			ContextWindow: 20,
			MaxRetries:    10,
			Backoff:       "5s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.Embedding.GenAIAPIKey == "" {
			c.Embedding.GenAIAPIKey = key
		}
	}
	if id := os.Getenv("CONCIERGE_PASSENGER_ID"); id != "" {
		c.Session.PassengerID = id
	}
	if path := os.Getenv("CONCIERGE_DB"); path != "" {
		c.Database.TravelPath = path
	}
	if src := os.Getenv("CONCIERGE_POLICY_CORPUS"); src != "" {
		c.Retrieval.CorpusSource = src
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetBackoff returns the retry backoff as a duration.
func (c *Config) GetBackoff() time.Duration {
	d, err := time.ParseDuration(c.Session.Backoff)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set GEMINI_API_KEY or llm.api_key)")
	}
	if c.Session.PassengerID == "" {
		return fmt.Errorf("passenger ID not configured (set CONCIERGE_PASSENGER_ID or session.passenger_id)")
	}
	if c.Session.ContextWindow <= 0 {
		return fmt.Errorf("session.context_window must be positive")
	}
	if c.Session.MaxRetries <= 0 {
		return fmt.Errorf("session.max_retries must be positive")
	}
	return nil
}
