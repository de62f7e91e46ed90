// Package config provides configuration helpers and TOML parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	News     NewsConfig     `toml:"news"`
	Relay    RelayConfig    `toml:"relay"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Category *string `toml:"category"`
	Country  *string `toml:"country"`
	WeakTop  *int    `toml:"weak-top"`
}

// NewsConfig selects where articles come from.
type NewsConfig struct {
	RelayURL *string   `toml:"relay-url"`
	BaseURL  *string   `toml:"base-url"`
	Timeout  *Duration `toml:"timeout"`
	Offline  *bool     `toml:"offline"`
}

// RelayConfig maps `newstype relay` settings.
type RelayConfig struct {
	Addr          *string   `toml:"addr"`
	APIKey        *string   `toml:"api-key"`
	RedisAddr     *string   `toml:"redis-addr"`
	RedisDB       *int      `toml:"redis-db"`
	RedisPassword *string   `toml:"redis-password"`
	CacheTTL      *Duration `toml:"cache-ttl"`
	LogLevel      *string   `toml:"log-level"`
}

// Duration decodes TOML strings such as "30s" or "1h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// LoadDotEnv loads environment variables from path. A missing file is not an
// error and variables already set are kept.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
