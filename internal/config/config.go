package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the service configuration.
type Config struct {
	Version  string         `yaml:"version" json:"version"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

type ServerConfig struct {
	Addr           string `yaml:"addr" json:"addr"`
	RequestTimeout string `yaml:"request_timeout" json:"request_timeout"` // e.g. "10s"
	StaticDir      string `yaml:"static_dir" json:"static_dir,omitempty"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, console
}

func DefaultConfig() *Config {
	return &Config{
		Version: "0.1.0",
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: "10s",
		},
		Database: DatabaseConfig{
			Path: "fairwaylog.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies a
// .env file next to it (if any) and the process environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	envFile := ".env"
	if path != "" {
		envFile = filepath.Join(filepath.Dir(path), ".env")
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
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
	if v := os.Getenv("FAIRWAYLOG_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("FAIRWAYLOG_REQUEST_TIMEOUT"); v != "" {
		c.Server.RequestTimeout = v
	}
	if v := os.Getenv("FAIRWAYLOG_STATIC_DIR"); v != "" {
		c.Server.StaticDir = v
	}
	if v := os.Getenv("FAIRWAYLOG_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("FAIRWAYLOG_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FAIRWAYLOG_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// GetRequestTimeout falls back to 10s when the value does not parse.
func (c *Config) GetRequestTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Server.RequestTimeout); err == nil && d > 0 {
		return d
	}
	return 10 * time.Second
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if d, err := time.ParseDuration(c.Server.RequestTimeout); err != nil || d <= 0 {
		return fmt.Errorf("server.request_timeout %q must be a positive duration", c.Server.RequestTimeout)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	return nil
}
