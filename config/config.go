package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/melkeydev/mcp-dbbrowser/types"
)

// Config is read from a YAML file; environment variables override the
// scalar settings. Connections listed here are seeded into the registry on
// startup.
type Config struct {
	Registry    RegistryConfig               `yaml:"registry"`
	Log         LogConfig                    `yaml:"log"`
	Connections []types.ConnectionDescriptor `yaml:"connections"`
}

type RegistryConfig struct {
	// Path of the SQLite file holding stored connections.
	Path string `yaml:"path" env:"DBBROWSER_REGISTRY_PATH" env-default:"connections.db"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"DBBROWSER_LOG_LEVEL" env-default:"info"`
}

// LoadConfig reads configPath if it exists and then applies environment
// overrides and defaults. A missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var config Config

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("config file not found, using environment only", "path", configPath)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(c.Connections))
	for i, conn := range c.Connections {
		if conn.Name == "" {
			return fmt.Errorf("connections[%d]: name is required", i)
		}
		if conn.URL == "" {
			return fmt.Errorf("connection %s: url is required", conn.Name)
		}
		if _, dup := seen[conn.Name]; dup {
			return fmt.Errorf("connection %s is defined twice", conn.Name)
		}
		seen[conn.Name] = struct{}{}
	}
	return nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return level, nil
}
