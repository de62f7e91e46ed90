package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Practice.Category != nil || cfg.News.RelayURL != nil {
		t.Fatalf("expected empty config")
	}
}

func TestLoadConfigTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[practice]
category = "sports"
country = "ca"
weak-top = 4

[news]
relay-url = "http://localhost:8080"
timeout = "15s"
offline = false

[relay]
addr = ":9090"
redis-addr = "localhost:6379"
redis-db = 2
cache-ttl = "1h"
log-level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Practice.Category == nil || *cfg.Practice.Category != "sports" {
		t.Fatalf("unexpected category %+v", cfg.Practice.Category)
	}
	if cfg.Practice.WeakTop == nil || *cfg.Practice.WeakTop != 4 {
		t.Fatalf("unexpected weak-top")
	}
	if cfg.News.Timeout == nil || cfg.News.Timeout.Duration != 15*time.Second {
		t.Fatalf("unexpected timeout %+v", cfg.News.Timeout)
	}
	if cfg.News.Offline == nil || *cfg.News.Offline {
		t.Fatalf("expected offline=false to be set")
	}
	if cfg.Relay.RedisDB == nil || *cfg.Relay.RedisDB != 2 {
		t.Fatalf("unexpected redis db")
	}
	if cfg.Relay.CacheTTL == nil || cfg.Relay.CacheTTL.Duration != time.Hour {
		t.Fatalf("unexpected cache ttl")
	}
	if cfg.Relay.APIKey != nil {
		t.Fatalf("expected unset api key to stay nil")
	}
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[practice]\nlang = \"en\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "practice.lang") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[news]\ntimeout = \"soon\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("NEWSTYPE_TEST_KEY=from-file\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("NEWSTYPE_TEST_KEY", "")
	if err := os.Unsetenv("NEWSTYPE_TEST_KEY"); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if got := os.Getenv("NEWSTYPE_TEST_KEY"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	if got := DefaultConfigPath(); got != filepath.Join("/tmp/cfg", "newstype", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/tmp/data", "newstype", "newstype.db") {
		t.Fatalf("unexpected db path %q", got)
	}
}
