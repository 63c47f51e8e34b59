// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers: atomic file replacement and
// rune-aware string truncation.
package util
