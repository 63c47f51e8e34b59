// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists the chat collection as one JSON document on disk.
package store

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/benamram/tazak-tui/internal/model"
)

// =============================================================================
// COLLECTION WATCHER
// =============================================================================

// Watcher refreshes the in-memory projection when another writer replaces
// the collection file. This is best-effort observation of concurrent
// writers, not a consistency guarantee: a write that lands between our own
// read-merge-write still wins by last-writer-wins.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func(model.Chats)

	mu      sync.Mutex
	pending bool
	last    time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWatcher creates a watcher for the store's collection file. onChange is
// invoked with the freshly loaded collection after each external change; it
// may be nil.
func NewWatcher(store *Store, debounce time.Duration, onChange func(model.Chats)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		store:    store,
		watcher:  fw,
		debounce: debounce,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
	}
	return w, nil
}

// Watch starts watching. The parent directory is watched rather than the
// file itself: atomic replacement renames a temp file over the target, which
// drops a watch registered on the old inode.
func (w *Watcher) Watch() error {
	if err := w.watcher.Add(filepath.Dir(w.store.Path)); err != nil {
		return err
	}

	go w.processEvents()
	go w.processPending()
	return nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}

// processEvents marks the file pending on every relevant event.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.store.Path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = true
			w.last = time.Now()
			w.mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("store: watcher error: %v", err)
		}
	}
}

// processPending reloads once events have settled for the debounce window.
// Editors and atomic writers fire several events per logical change.
func (w *Watcher) processPending() {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.mu.Lock()
			ready := w.pending && time.Since(w.last) >= w.debounce
			if ready {
				w.pending = false
			}
			w.mu.Unlock()

			if ready {
				chats := w.store.Load()
				if w.onChange != nil {
					w.onChange(chats)
				}
			}
		}
	}
}
