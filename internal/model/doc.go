// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats, messages and reports.
//
// This package defines the persisted chat collection (Chat, Message, Filters)
// and the structured message content model (Content, Span). Message content
// is not a flat string: it is an ordered sequence of typed spans, so report
// references streamed by the service stay addressable after persistence
// instead of being baked into markup.
//
// # Key Types
//
//   - Chat: A conversation with an append-ordered message sequence
//   - Message: A single user or bot message with filters and feedback
//   - Content: Ordered sequence of Spans (text, report link, deferred list)
//   - Report: A reference document fetched on demand from the service
//   - Feedback: Closed good/bad enumeration for message and report feedback
//
// Rendering is a projection: Content.Markdown produces the transcript text,
// the spans themselves stay structured.
package model
