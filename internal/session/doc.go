// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives one streamed bot response from first byte to
// finished message.
//
// A Session is the unit of work for a single generation: it feeds the
// response body through the stream decoder, accumulates structured content,
// tracks which candidate reports were surfaced inline, and appends the
// deferred "more reports" trailer on completion.
//
// # State Machine
//
//	Idle -> Streaming -> Completed
//	                  -> Aborted
//
// Sessions are single-shot: Run may be called once. An aborted session
// never emits a result and never notifies its observer again.
//
// # Preemption
//
// The Manager enforces the one-active-session rule. Starting a new session
// supersedes any session still streaming: preemption is a hard abort, not a
// queue, and is guaranteed to land before the new session's first record.
package session
