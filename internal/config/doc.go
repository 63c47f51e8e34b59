// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads tazak-tui configuration.
//
// Configuration is TOML with built-in defaults and environment variable
// overrides, resolved in order of precedence:
//
//   - TAZAK_* environment variables
//   - ~/.tazak/config.toml
//   - built-in defaults
package config
