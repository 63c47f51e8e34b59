// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads tazak-tui configuration.
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/benamram/tazak-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete tazak-tui configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	UI      UIConfig      `toml:"ui"`
}

// ServerConfig locates and authenticates against the report-assistant
// service.
type ServerConfig struct {
	// BaseURL is the service root, e.g. https://assist.example.org
	BaseURL string `toml:"base_url"`

	// AuthToken is sent inside every request payload.
	AuthToken string `toml:"auth_token"`
}

// StorageConfig controls local chat persistence.
type StorageConfig struct {
	// ChatsPath is the collection file (default ~/.tazak/chats.json).
	ChatsPath string `toml:"chats_path"`

	// WatchExternal reloads the in-memory projection when another process
	// rewrites the collection file.
	WatchExternal bool `toml:"watch_external"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	// Markdown renders bot messages through the markdown renderer.
	Markdown bool `toml:"markdown"`

	// Theme is the glamour style name ("dark", "light", "notty").
	Theme string `toml:"theme"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8787",
		},
		Storage: StorageConfig{
			ChatsPath:     filepath.Join(home, ".tazak", "chats.json"),
			WatchExternal: true,
		},
		UI: UIConfig{
			Markdown: true,
			Theme:    "dark",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tazak", "config.toml")
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config from the default location. A missing file yields
// the defaults; environment overrides always apply.
func Load() (Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads the config from path.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnvOverrides applies TAZAK_* environment variables over cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TAZAK_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("TAZAK_AUTH_TOKEN"); v != "" {
		cfg.Server.AuthToken = v
	}
	if v := os.Getenv("TAZAK_CHATS_PATH"); v != "" {
		cfg.Storage.ChatsPath = v
	}
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url %q is not a valid URL", c.Server.BaseURL)
	}
	if c.Storage.ChatsPath == "" {
		return fmt.Errorf("storage.chats_path must not be empty")
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// SaveTo writes the config as TOML to path. The file may hold the auth
// token, so it is written user-readable only.
func (c Config) SaveTo(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return err
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}
