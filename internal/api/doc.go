// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the report-assistant service.
//
// The wire contract, as served by the backend:
//
//   - GET  /get_hapaks      - options list for the conversations filter
//   - POST /run_chat_stream - open a generation; response headers carry
//     query-id and request-ids (the candidate report ids), the body is a
//     newline-delimited JSON stream of generated_response / generated_link
//     records
//   - POST /submit_feedback - message or report feedback
//   - POST /get_report      - fetch one report by (session, query, report)
//
// The service authenticates by an auth_token field inside each JSON payload;
// the client injects it from configuration.
//
// Two HTTP clients are kept: a pooled client with a request timeout for the
// JSON endpoints, and a streaming client with no client-side timeout whose
// requests are bounded by their context instead.
package api
