package tradewind

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log   LogConfig   `toml:"log"`
	API   APIConfig   `toml:"api"`
	Store StoreConfig `toml:"store"`
}

type APIConfig struct {
	// BaseURL is the root of the remote authority, e.g. "http://localhost:8000".
	BaseURL string `toml:"base_url"`
	// TimeoutSeconds bounds a single round trip; zero keeps the transport default.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	AddSource bool       `toml:"add_source"`
}

type StoreConfig struct {
	// Path of the on-device credential database. Empty selects the
	// in-memory store, which does not survive a restart.
	Path string `toml:"path"`
}
