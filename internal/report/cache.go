// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package report caches reference reports fetched from the service.
package report

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/benamram/tazak-tui/internal/api"
	"github.com/benamram/tazak-tui/internal/model"
)

// DefaultTTL is how long a fetched report stays fresh before a background
// refresh is scheduled on the next Get.
const DefaultTTL = 5 * time.Minute

// =============================================================================
// KEY AND STATUS
// =============================================================================

// Key addresses one cached report. All three components are required; a key
// with an empty component is never fetched.
type Key struct {
	ChatID   string
	ReportID string
	QueryID  string
}

// valid reports whether every key component is present.
func (k Key) valid() bool {
	return k.ChatID != "" && k.ReportID != "" && k.QueryID != ""
}

// Status describes what Get returned.
type Status int

const (
	// StatusMissing: the key is invalid; nothing will be fetched.
	StatusMissing Status = iota

	// StatusPending: a fetch is in flight and no previous value exists.
	StatusPending

	// StatusReady: the returned report is usable (possibly stale while a
	// refresh runs).
	StatusReady

	// StatusFailed: the last fetch failed and no previous value exists.
	StatusFailed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusMissing:
		return "missing"
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// =============================================================================
// CLIENT INTERFACE
// =============================================================================

// Client is the service surface the cache needs. *api.Client satisfies it.
type Client interface {
	GetReport(ctx context.Context, chatID, queryID, reportID string) (model.Report, error)
	SubmitReportFeedback(ctx context.Context, fb api.ReportFeedback) error
}

// =============================================================================
// REPORT CACHE
// =============================================================================

// entry is one cached report slot.
type entry struct {
	report    model.Report
	ready     bool
	inFlight  bool
	failed    bool
	fetchedAt time.Time
}

// Cache is the keyed, lazily-fetched report side-cache.
type Cache struct {
	mu      sync.Mutex
	client  Client
	ttl     time.Duration
	entries map[Key]*entry

	// onUpdate is invoked (outside the lock) after a fetch settles, so the
	// UI can re-render. May be nil.
	onUpdate func(Key)

	hits   int
	misses int
}

// NewCache creates a report cache backed by the given client.
func NewCache(client Client) *Cache {
	return &Cache{
		client:  client,
		ttl:     DefaultTTL,
		entries: make(map[Key]*entry),
	}
}

// SetOnUpdate registers the settle notification callback.
func (c *Cache) SetOnUpdate(fn func(Key)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = fn
}

// Get returns the cached report for key, launching a fetch when the entry is
// absent or stale. Pending and missing states are part of the contract, not
// errors.
func (c *Cache) Get(ctx context.Context, key Key) (model.Report, Status) {
	if !key.valid() {
		return model.Report{}, StatusMissing
	}

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}

	switch {
	case e.ready && time.Since(e.fetchedAt) < c.ttl:
		c.hits++
		report := e.report
		c.mu.Unlock()
		return report, StatusReady

	case e.ready:
		// Stale: keep serving the previous value while refreshing.
		c.hits++
		if !e.inFlight {
			e.inFlight = true
			go c.fetch(ctx, key)
		}
		report := e.report
		c.mu.Unlock()
		return report, StatusReady

	case e.inFlight:
		c.misses++
		c.mu.Unlock()
		return model.Report{}, StatusPending

	case e.failed:
		// Report the failure but retry in the background rather than
		// caching it.
		c.misses++
		e.failed = false
		e.inFlight = true
		c.mu.Unlock()
		go c.fetch(ctx, key)
		return model.Report{}, StatusFailed

	default:
		c.misses++
		e.inFlight = true
		c.mu.Unlock()
		go c.fetch(ctx, key)
		return model.Report{}, StatusPending
	}
}

// fetch resolves one key against the service and settles the entry.
func (c *Cache) fetch(ctx context.Context, key Key) {
	report, err := c.client.GetReport(ctx, key.ChatID, key.QueryID, key.ReportID)

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	e.inFlight = false
	if err != nil {
		log.Printf("report: fetch %s: %v", key.ReportID, err)
		if !e.ready {
			e.failed = true
		}
	} else {
		// An optimistic feedback rewrite must survive the fetch settling.
		if e.report.Feedback != nil && report.Feedback == nil {
			report.Feedback = e.report.Feedback
		}
		e.report = report
		e.ready = true
		e.fetchedAt = time.Now()
	}
	onUpdate := c.onUpdate
	c.mu.Unlock()

	if onUpdate != nil {
		onUpdate(key)
	}
}

// =============================================================================
// FEEDBACK
// =============================================================================

// SubmitFeedback rates a report. The cached feedback field is rewritten
// immediately; the network submission runs in the background and its failure
// is logged, never propagated back into the cache.
func (c *Cache) SubmitFeedback(ctx context.Context, key Key, title string, fb model.Feedback) {
	if !fb.Valid() {
		return
	}

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	rating := fb
	e.report.Feedback = &rating
	c.mu.Unlock()

	go func() {
		err := c.client.SubmitReportFeedback(ctx, api.ReportFeedback{
			ReportID:    key.ReportID,
			ReportTitle: title,
			QueryID:     key.QueryID,
			IsRelevant:  fb.IsRelevant(),
			SessionID:   key.ChatID,
		})
		if err != nil {
			log.Printf("report: submit feedback for %s: %v", key.ReportID, err)
		}
	}()
}

// Stats returns hit/miss counters.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
