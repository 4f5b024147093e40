package config

import (
	"path/filepath"
	"testing"
)

func TestNewConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Run("defaults without file and env", func(t *testing.T) {
		cfg, err := NewConfig(missing)
		if err != nil {
			t.Fatalf("NewConfig() unexpected error: %v", err)
		}
		if cfg.Server.Port != "8080" {
			t.Errorf("Port = %q, want 8080", cfg.Server.Port)
		}
		if cfg.Server.DataDir != "/data" {
			t.Errorf("DataDir = %q, want /data", cfg.Server.DataDir)
		}
		if cfg.Server.PublicBaseURL != "" {
			t.Errorf("PublicBaseURL = %q, want empty", cfg.Server.PublicBaseURL)
		}
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "9000")
		t.Setenv("PUBLIC_BASE_URL", "https://example.com")
		t.Setenv("DATA_DIR", "/srv/data")

		cfg, err := NewConfig(missing)
		if err != nil {
			t.Fatalf("NewConfig() unexpected error: %v", err)
		}
		if cfg.Server.Port != "9000" {
			t.Errorf("Port = %q, want 9000", cfg.Server.Port)
		}
		if cfg.Server.PublicBaseURL != "https://example.com" {
			t.Errorf("PublicBaseURL = %q", cfg.Server.PublicBaseURL)
		}
		if cfg.Server.DataDir != "/srv/data" {
			t.Errorf("DataDir = %q", cfg.Server.DataDir)
		}
	})
}
