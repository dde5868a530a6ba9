// Package config loads brokersync.yaml and applies environment overrides.
// Credentials never live in the YAML file: they come from the environment
// (optionally via a .env file) or are stored per connection in the database.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables recognized as overrides.
const (
	EnvAPIKey    = "TRADING212_API_KEY"
	EnvAPISecret = "TRADING212_API_SECRET"
	EnvBaseURL   = "TRADING212_BASE_URL"
	EnvDBPath    = "BROKERSYNC_DB"
	EnvLogLevel  = "BROKERSYNC_LOG_LEVEL"
)

// DefaultBaseURL is the live API endpoint.
const DefaultBaseURL = "https://live.trading212.com"

// Config represents the top-level brokersync.yaml configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Sync     SyncConfig     `yaml:"sync"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig locates the local sqlite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// APIConfig points at the broker API. Key and Secret are populated from the
// environment only.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Key     string `yaml:"-"`
	Secret  string `yaml:"-"`
}

// SyncConfig tunes the import pipeline.
type SyncConfig struct {
	DefaultCurrency string   `yaml:"default_currency"`
	SkipActions     []string `yaml:"skip_actions,omitempty"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DataDir is the directory holding the database and the sync log.
func (c *Config) DataDir() string {
	return filepath.Dir(c.Database.Path)
}

// Load reads a brokersync.yaml file from disk and applies environment
// overrides. A .env file next to the working directory is honored when
// present.
func Load(path string) (*Config, error) {
	// Missing .env is the common case, not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.API.Key = v
	}
	if v := os.Getenv(EnvAPISecret); v != "" {
		c.API.Secret = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join("data", "brokersync.db")
	}
	if c.Sync.DefaultCurrency == "" {
		c.Sync.DefaultCurrency = "EUR"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project rooted at
// dataDir.
func Default(dataDir string) *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(dataDir, "brokersync.db"),
		},
		API: APIConfig{
			BaseURL: DefaultBaseURL,
		},
		Sync: SyncConfig{
			DefaultCurrency: "EUR",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
