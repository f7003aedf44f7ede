package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTP.Addr == "" {
		t.Error("http addr default missing")
	}
	if cfg.RateLimit.SlugPerMinute <= 0 || cfg.RateLimit.IPPerMinute <= 0 {
		t.Errorf("rate limit defaults = %+v", cfg.RateLimit)
	}
	if cfg.RateLimit.FreePerMinute >= cfg.RateLimit.ProPerMinute {
		t.Errorf("free window %d not below pro window %d",
			cfg.RateLimit.FreePerMinute, cfg.RateLimit.ProPerMinute)
	}
	if cfg.Quota.FreeMonthly <= 0 {
		t.Errorf("free quota = %d, want a ceiling", cfg.Quota.FreeMonthly)
	}
	if cfg.Quota.ProMonthly != 0 {
		t.Errorf("pro quota = %d, want 0 (unlimited)", cfg.Quota.ProMonthly)
	}
	if cfg.Capture.MaxBodyBytes != 1<<20 {
		t.Errorf("max body = %d, want %d", cfg.Capture.MaxBodyBytes, 1<<20)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hookgw.yaml")
	yaml := []byte("http:\n  addr: \":9999\"\ncapture:\n  max_body_bytes: 2048\n")
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Errorf("addr = %q, want :9999", cfg.HTTP.Addr)
	}
	if cfg.Capture.MaxBodyBytes != 2048 {
		t.Errorf("max body = %d, want 2048", cfg.Capture.MaxBodyBytes)
	}
	// untouched keys keep their defaults
	if cfg.RateLimit.SlugPerMinute <= 0 {
		t.Error("merge dropped default rate limit")
	}
}
