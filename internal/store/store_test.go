// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists the chat collection as one JSON document on disk.
package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benamram/tazak-tui/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStoreWithPath(filepath.Join(t.TempDir(), "chats.json"))
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestStore_LoadMissingFileIsEmpty(t *testing.T) {
	store := newTestStore(t)

	chats := store.Load()
	if chats == nil {
		t.Fatal("Load returned nil")
	}
	if len(chats) != 0 {
		t.Errorf("chat count = %d, want 0", len(chats))
	}
}

func TestStore_LoadCorruptFileIsEmpty(t *testing.T) {
	store := newTestStore(t)
	if err := os.WriteFile(store.Path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	chats := store.Load()
	if len(chats) != 0 {
		t.Errorf("chat count = %d, want 0 for corrupt file", len(chats))
	}

	// A subsequent create starts a fresh collection.
	if _, err := store.Create(); err != nil {
		t.Fatalf("Create after corrupt load failed: %v", err)
	}
	if got := store.Load(); len(got) != 1 {
		t.Errorf("chat count after create = %d, want 1", len(got))
	}
}

// =============================================================================
// CREATE TESTS
// =============================================================================

func TestStore_CreateSeedsGreeting(t *testing.T) {
	store := newTestStore(t)

	chat, err := store.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if chat.ID == "" {
		t.Error("chat id is empty")
	}
	if len(chat.Messages) != 1 {
		t.Fatalf("message count = %d, want 1", len(chat.Messages))
	}

	greeting := chat.Messages[0]
	if greeting.Sender != model.SenderBot {
		t.Errorf("greeting sender = %q, want bot", greeting.Sender)
	}
	if greeting.Content.PlainText() != GreetingContent {
		t.Errorf("greeting content = %q", greeting.Content.PlainText())
	}
	if greeting.QueryID != "" {
		t.Error("greeting must not carry a query id")
	}
}

func TestStore_CreatePersistsAcrossReopen(t *testing.T) {
	store := newTestStore(t)
	chat, err := store.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	reopened := NewStoreWithPath(store.Path)
	chats := reopened.Load()
	if chats.Find(chat.ID) == nil {
		t.Error("created chat not found after reopen")
	}
}

// =============================================================================
// UPDATE TESTS
// =============================================================================

func TestStore_AppendMessageRoundTrip(t *testing.T) {
	store := newTestStore(t)
	chat, _ := store.Create()

	msg := model.Message{
		ID:      "m1",
		Sender:  model.SenderUser,
		Content: model.PlainContent("hello"),
		Date:    time.Now(),
		Query:   "hello",
	}
	chats, err := store.AppendMessage(chat.ID, msg)
	if err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	got := chats.Find(chat.ID)
	if got == nil || len(got.Messages) != 2 {
		t.Fatalf("message count = %d, want 2", len(got.Messages))
	}
	if got.Messages[1].Content.PlainText() != "hello" {
		t.Errorf("appended content = %q", got.Messages[1].Content.PlainText())
	}
}

func TestStore_UpdateMessagePatchesOnlyNamedFields(t *testing.T) {
	store := newTestStore(t)
	chat, _ := store.Create()
	msg := model.Message{
		ID:      "m1",
		Sender:  model.SenderBot,
		Content: model.PlainContent("answer"),
		Query:   "the question",
		QueryID: "q_1",
	}
	if _, err := store.AppendMessage(chat.ID, msg); err != nil {
		t.Fatal(err)
	}

	fb := model.FeedbackGood
	chats, err := store.UpdateMessage(chat.ID, "m1", MessagePatch{Feedback: &fb})
	if err != nil {
		t.Fatalf("UpdateMessage failed: %v", err)
	}

	got := chats.FindMessage(chat.ID, "m1")
	if got == nil {
		t.Fatal("message disappeared")
	}
	if got.Feedback == nil || *got.Feedback != model.FeedbackGood {
		t.Errorf("feedback = %v, want good", got.Feedback)
	}
	if got.Content.PlainText() != "answer" || got.Query != "the question" || got.QueryID != "q_1" {
		t.Error("unpatched fields were touched")
	}
}

func TestStore_UpdateUnknownIDsIsNoOp(t *testing.T) {
	store := newTestStore(t)
	chat, _ := store.Create()

	fb := model.FeedbackBad
	if _, err := store.UpdateMessage("missing", "m1", MessagePatch{Feedback: &fb}); err != nil {
		t.Errorf("unknown chat id should not error: %v", err)
	}
	if _, err := store.UpdateMessage(chat.ID, "missing", MessagePatch{Feedback: &fb}); err != nil {
		t.Errorf("unknown message id should not error: %v", err)
	}
}

func TestStore_UpdateChatReplacesMessages(t *testing.T) {
	store := newTestStore(t)
	chat, _ := store.Create()

	replaced := []model.Message{{ID: "only", Sender: model.SenderUser}}
	chats, err := store.UpdateChat(chat.ID, ChatPatch{Messages: &replaced})
	if err != nil {
		t.Fatalf("UpdateChat failed: %v", err)
	}

	got := chats.Find(chat.ID)
	if len(got.Messages) != 1 || got.Messages[0].ID != "only" {
		t.Errorf("messages = %+v", got.Messages)
	}

	// Sequential whole-chat updates: the later write wins.
	second := []model.Message{{ID: "second", Sender: model.SenderBot}}
	chats, err = store.UpdateChat(chat.ID, ChatPatch{Messages: &second})
	if err != nil {
		t.Fatal(err)
	}
	got = chats.Find(chat.ID)
	if len(got.Messages) != 1 || got.Messages[0].ID != "second" {
		t.Errorf("messages after second update = %+v", got.Messages)
	}
}

func TestStore_SequentialUpdatesBothSurvive(t *testing.T) {
	store := newTestStore(t)
	chat, _ := store.Create()
	store.AppendMessage(chat.ID, model.Message{ID: "m1", Sender: model.SenderBot})
	store.AppendMessage(chat.ID, model.Message{ID: "m2", Sender: model.SenderBot})

	good, bad := model.FeedbackGood, model.FeedbackBad
	store.UpdateMessage(chat.ID, "m1", MessagePatch{Feedback: &good})
	chats, err := store.UpdateMessage(chat.ID, "m2", MessagePatch{Feedback: &bad})
	if err != nil {
		t.Fatal(err)
	}

	m1 := chats.FindMessage(chat.ID, "m1")
	m2 := chats.FindMessage(chat.ID, "m2")
	if m1.Feedback == nil || *m1.Feedback != model.FeedbackGood {
		t.Error("first update was lost")
	}
	if m2.Feedback == nil || *m2.Feedback != model.FeedbackBad {
		t.Error("second update was lost")
	}
}

// =============================================================================
// PROJECTION TESTS
// =============================================================================

func TestStore_CachedReflectsMutationsImmediately(t *testing.T) {
	store := newTestStore(t)
	chat, _ := store.Create()

	cached := store.Cached()
	if cached.Find(chat.ID) == nil {
		t.Error("projection missing created chat")
	}

	store.AppendMessage(chat.ID, model.Message{ID: "m1", Sender: model.SenderUser})
	cached = store.Cached()
	if got := cached.Find(chat.ID); len(got.Messages) != 2 {
		t.Errorf("projection message count = %d, want 2", len(got.Messages))
	}
}

func TestStore_CachedIsACopy(t *testing.T) {
	store := newTestStore(t)
	chat, _ := store.Create()

	cached := store.Cached()
	cached.Find(chat.ID).Messages = nil

	if got := store.Cached().Find(chat.ID); len(got.Messages) != 1 {
		t.Error("mutating a returned projection leaked into the store")
	}
}

// Two stores on the same file model two clients of the shared collection.
// The durable layer read-merge-writes, so a write from one client does not
// clobber an earlier write from the other.
func TestStore_TwoClientsReadMergeWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats.json")
	a := NewStoreWithPath(path)
	b := NewStoreWithPath(path)

	chatA, err := a.Create()
	if err != nil {
		t.Fatal(err)
	}
	chatB, err := b.Create()
	if err != nil {
		t.Fatal(err)
	}

	final := NewStoreWithPath(path).Load()
	if final.Find(chatA.ID) == nil {
		t.Error("first client's chat lost")
	}
	if final.Find(chatB.ID) == nil {
		t.Error("second client's chat lost")
	}
}
