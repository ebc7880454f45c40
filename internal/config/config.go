package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.noor/config.toml.
type Config struct {
	DefaultProfile string `toml:"default_profile"`
	Identity       string `toml:"identity"`
	HTTPAddr       string `toml:"http_addr"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
	DebounceMS     int    `toml:"debounce_ms"`
	MaxResults     int    `toml:"max_results"`
	MaxValueBytes  int    `toml:"max_value_bytes"`
	QuranPath      string `toml:"quran_path"`
	SunnahPath     string `toml:"sunnah_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultProfile: "main",
		HTTPAddr:       "127.0.0.1:7950",
		PollIntervalMS: 3000,
		DebounceMS:     600,
		MaxResults:     50,
	}
}

// PollInterval returns the mailbox poll interval.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalMS <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Debounce returns the search quiet period.
func (c *Config) Debounce() time.Duration {
	if c.DebounceMS <= 0 {
		return 600 * time.Millisecond
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Load reads config from the given path. Returns error if the file is
// missing or malformed.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault reads config from path, falling back to Default when the
// file does not exist.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return Default()
	}
	return cfg
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
