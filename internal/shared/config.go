package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Auth     AuthConfig     `toml:"auth"`
	Database DatabaseConfig `toml:"database"`
	Polling  PollingConfig  `toml:"polling"`
}

// APIConfig contains the platform API origin and transport settings.
type APIConfig struct {
	BaseURL   string        `toml:"base_url"`
	Token     string        `toml:"token"`
	RateLimit float64       `toml:"rate_limit"`
	Timeout   time.Duration `toml:"timeout"`
}

// AuthConfig describes how the deployment enforces authentication.
type AuthConfig struct {
	Enforced bool          `toml:"enforced"`
	CheckTTL time.Duration `toml:"check_ttl"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// PollingConfig controls artifact polling cadence.
type PollingConfig struct {
	Interval   time.Duration `toml:"interval"`
	StaleAfter time.Duration `toml:"stale_after"`
	MaxRetries int           `toml:"max_retries"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate reports configuration values the client cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	}
	if c.Polling.Interval <= 0 {
		return fmt.Errorf("%w: polling.interval must be positive", ErrInvalidConfig)
	}
	if c.Polling.StaleAfter < c.Polling.Interval {
		return fmt.Errorf("%w: polling.stale_after must not be shorter than polling.interval", ErrInvalidConfig)
	}
	if c.Polling.MaxRetries < 0 {
		return fmt.Errorf("%w: polling.max_retries must not be negative", ErrInvalidConfig)
	}
	if c.Auth.CheckTTL < 0 {
		return fmt.Errorf("%w: auth.check_ttl must not be negative", ErrInvalidConfig)
	}
	return nil
}

// SaveConfig writes the configuration to path as TOML.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
