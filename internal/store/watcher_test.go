// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists the chat collection as one JSON document on disk.
package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/benamram/tazak-tui/internal/model"
)

// =============================================================================
// WATCHER TESTS
// =============================================================================

func TestWatcher_SeesExternalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats.json")
	mine := NewStoreWithPath(path)
	mine.Load()

	changes := make(chan model.Chats, 4)
	watcher, err := NewWatcher(mine, 20*time.Millisecond, func(chats model.Chats) {
		changes <- chats
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := watcher.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer watcher.Close()

	// Another client replaces the collection file.
	other := NewStoreWithPath(path)
	chat, err := other.Create()
	if err != nil {
		t.Fatal(err)
	}

	select {
	case chats := <-changes:
		if chats.Find(chat.ID) == nil {
			t.Error("reloaded collection missing the external chat")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never reported the external write")
	}

	// The reload also refreshed the projection.
	if mine.Cached().Find(chat.ID) == nil {
		t.Error("projection not refreshed")
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStoreWithPath(filepath.Join(dir, "chats.json"))
	store.Load()

	changes := make(chan model.Chats, 4)
	watcher, err := NewWatcher(store, 10*time.Millisecond, func(chats model.Chats) {
		changes <- chats
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := watcher.Watch(); err != nil {
		t.Fatal(err)
	}
	defer watcher.Close()

	sibling := NewStoreWithPath(filepath.Join(dir, "other.json"))
	if _, err := sibling.Create(); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changes:
		t.Error("watcher fired for a sibling file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_CloseStops(t *testing.T) {
	store := NewStoreWithPath(filepath.Join(t.TempDir(), "chats.json"))
	watcher, err := NewWatcher(store, 10*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := watcher.Watch(); err != nil {
		t.Fatal(err)
	}
	if err := watcher.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
