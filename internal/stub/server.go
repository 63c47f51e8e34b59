// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stub is a local stand-in for the report-assistant service.
package stub

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benamram/tazak-tui/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultPort is the default listen port.
	DefaultPort = 8787

	// MaxRequestBodySize caps request bodies.
	MaxRequestBodySize = 1 * 1024 * 1024

	// DefaultLineDelay is the pause between streamed NDJSON lines, so the
	// client's incremental display is visible during development.
	DefaultLineDelay = 40 * time.Millisecond
)

// =============================================================================
// SERVER
// =============================================================================

// Server serves the wire contract over canned data.
type Server struct {
	port       int
	httpServer *http.Server

	mu      sync.Mutex
	options []model.Option
	reports map[string]model.Report
	script  []string
	delay   time.Duration

	requests atomic.Int64
	feedback atomic.Int64
}

// NewServer creates a stub server with built-in demo data.
func NewServer(port int) *Server {
	s := &Server{
		port:  port,
		delay: DefaultLineDelay,
	}
	s.options = demoOptions()
	s.reports = demoReports()
	s.script = demoScript(s.reportIDs())
	return s
}

// WithReports replaces the canned report set and rebuilds the default
// script around it.
func (s *Server) WithReports(reports []model.Report) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = make(map[string]model.Report, len(reports))
	for _, r := range reports {
		s.reports[r.ID] = r
	}
	s.script = demoScript(s.reportIDsLocked())
	return s
}

// WithScript replaces the raw NDJSON lines streamed for every query.
func (s *Server) WithScript(lines []string) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = lines
	return s
}

// WithDelay sets the pause between streamed lines (0 disables).
func (s *Server) WithDelay(d time.Duration) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
	return s
}

// FeedbackCount returns how many feedback submissions were accepted.
func (s *Server) FeedbackCount() int64 {
	return s.feedback.Load()
}

// =============================================================================
// ROUTING
// =============================================================================

// Handler returns the HTTP handler. Exposed so tests can mount the stub in
// an httptest.Server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/get_hapaks", s.handleOptions)
	mux.HandleFunc("/run_chat_stream", s.handleChatStream)
	mux.HandleFunc("/submit_feedback", s.handleFeedback)
	mux.HandleFunc("/get_report", s.handleGetReport)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // streaming responses have no write deadline
	}
	log.Printf("stub: listening on %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.mu.Lock()
	opts := s.options
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, opts)
}

// chatStreamRequest mirrors the client payload; only presence matters here.
type chatStreamRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
	AuthToken string `json:"auth_token"`
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.requests.Add(1)

	var req chatStreamRequest
	body := http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AuthToken == "" {
		s.writeError(w, http.StatusUnauthorized, "missing auth_token")
		return
	}

	s.mu.Lock()
	script := s.script
	delay := s.delay
	ids := s.reportIDsLocked()
	s.mu.Unlock()

	idsJSON, _ := json.Marshal(ids)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("query-id", generateQueryID())
	w.Header().Set("request-ids", string(idsJSON))
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)
	for _, line := range script {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		fmt.Fprintln(w, line)
		if canFlush {
			flusher.Flush()
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload map[string]any
	body := http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload["auth_token"] == "" || payload["auth_token"] == nil {
		s.writeError(w, http.StatusUnauthorized, "missing auth_token")
		return
	}

	s.feedback.Add(1)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getReportRequest is the report fetch payload.
type getReportRequest struct {
	AuthToken string `json:"auth_token"`
	SessionID string `json:"session_id"`
	QueryID   string `json:"query_id"`
	ReportID  string `json:"report_id"`
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req getReportRequest
	body := http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	report, ok := s.reports[req.ReportID]
	s.mu.Unlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, "report not found")
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"requests": s.requests.Load(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("stub: encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) reportIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reportIDsLocked()
}

func (s *Server) reportIDsLocked() []string {
	ids := make([]string, 0, len(s.reports))
	for id := range s.reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// generateQueryID creates a unique query id.
func generateQueryID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return "q_" + hex.EncodeToString(b)
}
