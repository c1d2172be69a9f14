package tradewind

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[log]
level = "INFO"

[api]
base_url = "http://localhost:8000"
timeout_seconds = 15

[store]
path = "/tmp/tradewind.db"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout() != 15*time.Second {
		t.Errorf("Timeout() = %v, want 15s", cfg.API.Timeout())
	}
	if cfg.Store.Path != "/tmp/tradewind.db" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("LoadConfig() error = nil, want error")
	}
}
