// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stub is a local stand-in for the report-assistant service.
//
// It implements the full wire contract - options list, chat stream with
// query-id / request-ids headers and an NDJSON body flushed line by line,
// feedback submission, and report fetch - over canned data. It exists for
// development against no backend and as the target of the integration
// tests; it performs no generation of its own.
package stub
