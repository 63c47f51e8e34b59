// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists the chat collection as one JSON document on disk.
package store

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/benamram/tazak-tui/internal/model"
	"github.com/benamram/tazak-tui/internal/util"
)

// GreetingContent is the fixed bot message every new chat is seeded with.
const GreetingContent = "Hello and welcome! How can I help you today?"

// =============================================================================
// PATCH TYPES
// =============================================================================

// ChatPatch is a partial chat update. Nil fields are left untouched by the
// merge; the chat id itself is never patchable.
type ChatPatch struct {
	Messages *[]model.Message
}

// MessagePatch is a partial message update. Nil fields are left untouched;
// the message id, sender, date and filters are never patchable (filters are
// immutable once attached).
type MessagePatch struct {
	Content  *model.Content
	Feedback *model.Feedback
	Query    *string
	QueryID  *string
}

// mergeChat shallow-merges patch into chat.
func mergeChat(chat *model.Chat, patch ChatPatch) {
	if patch.Messages != nil {
		chat.Messages = *patch.Messages
	}
}

// mergeMessage shallow-merges patch into msg.
func mergeMessage(msg *model.Message, patch MessagePatch) {
	if patch.Content != nil {
		msg.Content = *patch.Content
	}
	if patch.Feedback != nil {
		msg.Feedback = patch.Feedback
	}
	if patch.Query != nil {
		msg.Query = *patch.Query
	}
	if patch.QueryID != nil {
		msg.QueryID = *patch.QueryID
	}
}

// =============================================================================
// CHAT STORE
// =============================================================================

// Store is the persisted chat collection plus its optimistic in-memory
// projection.
type Store struct {
	mu sync.Mutex

	// Path is the JSON file holding the whole collection.
	Path string

	// cached is the in-memory projection. Primed on first Load and kept in
	// sync optimistically by every mutation.
	cached model.Chats
	primed bool
}

// NewStore creates a store at the default location (~/.tazak/chats.json).
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewStoreWithPath(filepath.Join(homeDir, ".tazak", "chats.json")), nil
}

// NewStoreWithPath creates a store backed by the given file.
func NewStoreWithPath(path string) *Store {
	return &Store{Path: path}
}

// =============================================================================
// LOAD
// =============================================================================

// Load returns the persisted collection and primes the in-memory projection.
// A missing or corrupt file yields an empty collection; Load never fails.
func (s *Store) Load() model.Chats {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats := s.readFile()
	s.cached = chats
	s.primed = true
	return chats.Clone()
}

// Cached returns the optimistic in-memory projection. The projection is
// authoritative for this process; the file is authoritative across restarts.
func (s *Store) Cached() model.Chats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.primed {
		s.cached = s.readFile()
		s.primed = true
	}
	return s.cached.Clone()
}

// readFile deserializes the collection from disk. Caller holds the lock.
func (s *Store) readFile() model.Chats {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("store: read %s: %v", s.Path, err)
		}
		return model.Chats{}
	}

	var chats model.Chats
	if err := json.Unmarshal(data, &chats); err != nil {
		// Local recovery path: corrupt data is discarded, never surfaced.
		log.Printf("store: discarding corrupt collection at %s: %v", s.Path, err)
		return model.Chats{}
	}
	return chats
}

// =============================================================================
// CREATE
// =============================================================================

// Create allocates a new chat seeded with the greeting message, appends it
// to the collection and persists. The returned chat is the caller's copy.
func (s *Store) Create() (model.Chat, error) {
	now := time.Now()
	chat := model.Chat{
		ID: uuid.NewString(),
		Messages: []model.Message{
			{
				ID:      uuid.NewString(),
				Sender:  model.SenderBot,
				Content: model.PlainContent(GreetingContent),
				Date:    now,
				Filters: model.Filters{
					Conversations: []string{},
					DateRange:     now.Format(time.RFC3339),
					Keywords:      []string{},
				},
			},
		},
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Optimistic apply.
	s.applyCachedLocked(func(chats model.Chats) model.Chats {
		return append(chats, chat)
	})

	// Durable read-merge-write.
	chats := append(s.readFile(), chat)
	if err := s.writeFileLocked(chats); err != nil {
		return model.Chat{}, err
	}
	return chat, nil
}

// =============================================================================
// UPDATE
// =============================================================================

// UpdateChat shallow-merges patch into the chat with the given id and
// persists the whole collection. A non-existent id is a no-op. Returns the
// durably written collection.
func (s *Store) UpdateChat(id string, patch ChatPatch) (model.Chats, error) {
	merge := func(chats model.Chats) model.Chats {
		if chat := chats.Find(id); chat != nil {
			mergeChat(chat, patch)
		}
		return chats
	}
	return s.update(merge)
}

// UpdateMessage shallow-merges patch into one message inside one chat and
// persists the whole collection. Unknown chat or message ids are a no-op.
func (s *Store) UpdateMessage(chatID, messageID string, patch MessagePatch) (model.Chats, error) {
	merge := func(chats model.Chats) model.Chats {
		if msg := chats.FindMessage(chatID, messageID); msg != nil {
			mergeMessage(msg, patch)
		}
		return chats
	}
	return s.update(merge)
}

// AppendMessage appends a message to a chat's sequence. This is the merge
// the streaming path uses to commit a finished bot message and the user's
// own message before it.
func (s *Store) AppendMessage(chatID string, msg model.Message) (model.Chats, error) {
	merge := func(chats model.Chats) model.Chats {
		if chat := chats.Find(chatID); chat != nil {
			chat.Messages = append(chat.Messages, msg)
		}
		return chats
	}
	return s.update(merge)
}

// update runs one merge through both layers: the optimistic projection
// first, then the durable file. The two are not a transaction; between the
// optimistic apply and the write another writer may touch the file, and the
// later whole-collection write wins.
func (s *Store) update(merge func(model.Chats) model.Chats) (model.Chats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyCachedLocked(merge)

	chats := merge(s.readFile())
	if err := s.writeFileLocked(chats); err != nil {
		return nil, err
	}
	return chats.Clone(), nil
}

// applyCachedLocked applies a merge to the in-memory projection. Caller
// holds the lock.
func (s *Store) applyCachedLocked(merge func(model.Chats) model.Chats) {
	if !s.primed {
		s.cached = s.readFile()
		s.primed = true
	}
	s.cached = merge(s.cached.Clone())
}

// writeFileLocked serializes and atomically replaces the collection file.
// Caller holds the lock.
func (s *Store) writeFileLocked(chats model.Chats) error {
	data, err := json.MarshalIndent(chats, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(s.Path, data, 0644)
}
