// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives one streamed bot response from first byte to
// finished message.
package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/benamram/tazak-tui/internal/model"
	"github.com/benamram/tazak-tui/internal/stream"
)

// =============================================================================
// STATE TYPE
// =============================================================================

// State is the lifecycle phase of a generation session.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateCompleted
	StateAborted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// ErrSuperseded is returned by Run when the session was aborted, either by a
// newer session preempting it or by an explicit Supersede call. It marks a
// cancellation stop, not a failure: no result exists and none was lost.
var ErrSuperseded = errors.New("generation session superseded")

// =============================================================================
// SESSION
// =============================================================================

// Observer receives the accumulated content after every appended record, for
// incremental display. Snapshots are monotonically appended, never reordered.
type Observer func(model.Content)

// Result is the outcome of a completed session.
type Result struct {
	// Content is the final assembled message body, including the deferred
	// trailer if any candidate reports were not surfaced inline.
	Content model.Content

	// GenerationDuration is completion time minus StartedAt.
	GenerationDuration time.Duration

	// StartedAt is when the session was started.
	StartedAt time.Time
}

// Session assembles one streamed bot response.
type Session struct {
	mu    sync.Mutex
	state State

	// Accumulation buffer and the set of report ids surfaced inline.
	content model.Content
	seen    map[string]bool

	// candidates is the full report id list from the request-ids header,
	// known before streaming completes.
	candidates []string

	observer  Observer
	startedAt time.Time

	// abort is the cancellation handle; closed exactly once.
	abort     chan struct{}
	abortOnce sync.Once
}

// newSession creates an idle session. startedAt is stamped here: the spinner
// and the reported generation duration both count from session start, not
// from the first byte.
func newSession(candidates []string, observer Observer) *Session {
	return &Session{
		state:      StateIdle,
		seen:       make(map[string]bool),
		candidates: candidates,
		observer:   observer,
		startedAt:  time.Now(),
		abort:      make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StartedAt returns when the session was started.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Content returns a snapshot of the accumulated content so far.
func (s *Session) Content() model.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content.Clone()
}

// Supersede aborts the session. Safe to call from any goroutine and more
// than once. After Supersede the session emits no further observer updates
// and Run returns ErrSuperseded; the superseding session owns the observer
// from this point.
func (s *Session) Supersede() {
	s.mu.Lock()
	if s.state == StateIdle || s.state == StateStreaming {
		s.state = StateAborted
	}
	s.observer = nil
	s.mu.Unlock()

	s.abortOnce.Do(func() { close(s.abort) })
}

// Run consumes the response body until completion or abort. It may be called
// once. On completion it returns the assembled result; on abort it returns
// ErrSuperseded (or ctx.Err() for caller-side cancellation) with no result;
// a transport failure mid-stream fails the session with no result.
func (s *Session) Run(ctx context.Context, body io.Reader) (*Result, error) {
	s.mu.Lock()
	if s.state == StateAborted {
		s.mu.Unlock()
		return nil, ErrSuperseded
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil, errors.New("session already run")
	}
	s.state = StateStreaming
	s.mu.Unlock()

	// Tie the abort handle into the context the decoder polls.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.abort:
			cancel()
		case <-ctx.Done():
		}
	}()

	reader := stream.NewReader(body)
	err := reader.Process(ctx, s.handleRecord)

	if err != nil {
		s.mu.Lock()
		s.state = StateAborted
		s.mu.Unlock()

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if s.superseded() {
				return nil, ErrSuperseded
			}
			return nil, err
		}
		return nil, err
	}

	return s.complete()
}

// superseded reports whether the abort handle fired.
func (s *Session) superseded() bool {
	select {
	case <-s.abort:
		return true
	default:
		return false
	}
}

// handleRecord appends one decoded record to the accumulation buffer and
// notifies the observer with the new snapshot.
func (s *Session) handleRecord(rec stream.Record) {
	s.mu.Lock()
	if s.state != StateStreaming {
		s.mu.Unlock()
		return
	}

	switch {
	case rec.IsText():
		s.content = s.content.AppendText(rec.Text())
	case rec.IsLink():
		s.content = append(s.content, model.ReportSpan(rec.Link()))
		s.seen[rec.Link()] = true
	}

	observer := s.observer
	snapshot := s.content.Clone()
	s.mu.Unlock()

	if observer != nil {
		observer(snapshot)
	}
}

// complete finishes a fully-streamed session: candidates that never appeared
// inline are appended as one deferred trailer span, in candidate order.
func (s *Session) complete() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStreaming {
		return nil, ErrSuperseded
	}

	var remaining []string
	for _, id := range s.candidates {
		if !s.seen[id] {
			remaining = append(remaining, id)
		}
	}
	if len(remaining) > 0 {
		s.content = append(s.content, model.MoreReportsSpan(remaining))
	}

	s.state = StateCompleted
	return &Result{
		Content:            s.content.Clone(),
		GenerationDuration: time.Since(s.startedAt),
		StartedAt:          s.startedAt,
	}, nil
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager enforces the one-active-session rule for a client instance.
type Manager struct {
	mu      sync.Mutex
	current *Session
}

// NewManager creates a session manager with no active session.
func NewManager() *Manager {
	return &Manager{}
}

// Start supersedes any active session and returns a fresh idle one. The old
// session is fully aborted before Start returns, so its records can never
// interleave with the new session's output.
func (m *Manager) Start(candidates []string, observer Observer) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.Supersede()
	}
	m.current = newSession(candidates, observer)
	return m.current
}

// Active returns the current session, or nil if none was ever started.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Abort supersedes the active session, if any.
func (m *Manager) Abort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.Supersede()
	}
}
