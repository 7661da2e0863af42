package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Theme is the one UI preference persisted across sessions.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeDark   Theme = "dark"
	ThemeLight  Theme = "light"
)

// Config represents the global ~/.instachat/config.toml.
type Config struct {
	DefaultSession string `toml:"default_session"`
	ServerURL      string `toml:"server_url"`
	PushURL        string `toml:"push_url"`
	Theme          Theme  `toml:"theme"`
	Notifications  bool   `toml:"notifications"`

	User Identity `toml:"user"`
}

// Identity is the session owner, established by out-of-band login.
type Identity struct {
	ID       int    `toml:"id"`
	Name     string `toml:"name"`
	Username string `toml:"username"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		ServerURL:     "http://localhost:8000",
		PushURL:       "nats://localhost:4222",
		Theme:         ThemeSystem,
		Notifications: true,
	}
}

// Load reads config from the given path. Returns an error if the file
// is missing or malformed.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if cfg.Theme == "" {
		cfg.Theme = ThemeSystem
	}
	return cfg, nil
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
