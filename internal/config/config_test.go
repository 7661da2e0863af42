package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope", "config.toml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instachat", "config.toml")
	cfg := &Config{
		DefaultSession: "work",
		ServerURL:      "https://chat.example.com",
		PushURL:        "nats://push.example.com:4222",
		Theme:          ThemeDark,
		Notifications:  false,
		User:           Identity{ID: 42, Name: "Al", Username: "al"},
	}

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded = %+v, want %+v", loaded, cfg)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("default_session = \"main\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerURL != "http://localhost:8000" {
		t.Errorf("server_url = %q", cfg.ServerURL)
	}
	if cfg.Theme != ThemeSystem {
		t.Errorf("theme = %q, want system", cfg.Theme)
	}
	if !cfg.Notifications {
		t.Error("notifications should default on")
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("theme = [broken"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed toml")
	}
}
