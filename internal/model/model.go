// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats, messages and reports.
package model

import (
	"time"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "Assistant"
	default:
		return string(s)
	}
}

// =============================================================================
// FEEDBACK TYPE
// =============================================================================

// Feedback is the closed good/bad rating a user can attach to a message
// or a report. The zero value means "no feedback given".
type Feedback string

const (
	FeedbackGood Feedback = "good"
	FeedbackBad  Feedback = "bad"
)

// Valid reports whether f is one of the known feedback values.
func (f Feedback) Valid() bool {
	return f == FeedbackGood || f == FeedbackBad
}

// IsRelevant converts the rating to the wire form expected by the
// feedback endpoint (is_relevant boolean).
func (f Feedback) IsRelevant() bool {
	return f == FeedbackGood
}

// =============================================================================
// FILTERS TYPE
// =============================================================================

// Filters is a snapshot of the selection criteria active when a query was
// issued. A Filters value attached to a Message is never mutated afterwards.
type Filters struct {
	// Conversations restricts the query to the selected source channels.
	Conversations []string `json:"conversations"`

	// DateRange is the ISO timestamp lower bound for searched material.
	DateRange string `json:"date_range"`

	// Keywords are free-form filter terms.
	Keywords []string `json:"keywords"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in a chat. Messages are created once and then
// only mutated by field merge (feedback); they are never deleted.
type Message struct {
	// ID is unique within the owning chat.
	ID     string `json:"id"`
	Sender Sender `json:"sender"`

	// Content is the structured message body. Bot messages may embed
	// report reference spans.
	Content Content   `json:"content"`
	Date    time.Time `json:"date"`

	// Feedback is nil until the user rates the message.
	Feedback *Feedback `json:"feedback,omitempty"`

	// Query context: the filters, query text and service-assigned query id
	// that produced this message. Empty for user and greeting messages.
	Filters Filters `json:"filters"`
	Query   string  `json:"query"`
	QueryID string  `json:"queryId"`
}

// =============================================================================
// CHAT TYPE
// =============================================================================

// Chat is one conversation. Message order is append order.
type Chat struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
}

// Chats is the persisted collection of all conversations.
type Chats []Chat

// Find returns the chat with the given id, or nil if absent.
func (cs Chats) Find(id string) *Chat {
	for i := range cs {
		if cs[i].ID == id {
			return &cs[i]
		}
	}
	return nil
}

// FindMessage returns the message with the given id inside the given chat,
// or nil if either is absent.
func (cs Chats) FindMessage(chatID, messageID string) *Message {
	chat := cs.Find(chatID)
	if chat == nil {
		return nil
	}
	for i := range chat.Messages {
		if chat.Messages[i].ID == messageID {
			return &chat.Messages[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the collection. The optimistic in-memory
// projection and the durable file must never share message slices.
func (cs Chats) Clone() Chats {
	if cs == nil {
		return nil
	}
	out := make(Chats, len(cs))
	for i, chat := range cs {
		out[i] = Chat{ID: chat.ID}
		if chat.Messages != nil {
			out[i].Messages = make([]Message, len(chat.Messages))
			copy(out[i].Messages, chat.Messages)
			for j := range out[i].Messages {
				out[i].Messages[j].Content = out[i].Messages[j].Content.Clone()
			}
		}
	}
	return out
}

// =============================================================================
// REPORT TYPE
// =============================================================================

// Report is a reference document surfaced by the service. Reports are not
// part of the chat collection; they live in the report cache and carry their
// own feedback, independent of any message-level feedback.
type Report struct {
	ID          string `json:"report_id"`
	Title       string `json:"report_title"`
	SpeakerA    string `json:"speaker_a"`
	SpeakerB    string `json:"speaker_b"`
	Tazak       string `json:"report_tazak"`
	UpdatedDate string `json:"report_updated_date"`
	RawText     string `json:"report_raw_text"`

	Feedback *Feedback `json:"feedback,omitempty"`
}

// =============================================================================
// OPTION TYPE
// =============================================================================

// Option is one selectable entry from the service's options list
// (source channels offered for the conversations filter).
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
