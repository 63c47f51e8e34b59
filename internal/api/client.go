// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the report-assistant service.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/benamram/tazak-tui/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultTimeout bounds the non-streaming JSON endpoints.
	DefaultTimeout = 30 * time.Second

	// maxRetries is the retry budget for transient failures on the JSON
	// endpoints. Streaming is never retried; the session owns that choice.
	maxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// maxResponseSize caps JSON response bodies.
	maxResponseSize = 10 * 1024 * 1024
)

// Wire header names on the chat-stream response.
const (
	headerQueryID    = "query-id"
	headerRequestIDs = "request-ids"
)

// ErrStreamUnavailable is returned when the chat-stream call produced no
// readable body. The caller decides the user-visible handling.
var ErrStreamUnavailable = errors.New("chat stream unavailable: no response body")

var (
	// Shared pooled transport for all JSON requests.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// Streaming requests have no client timeout; lifetime is bounded by
	// the request context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the report-assistant service.
type Client struct {
	baseURL   string
	authToken string

	httpClient   *http.Client
	streamClient *http.Client

	// limiter paces the mutating endpoints (feedback submission).
	limiter *rate.Limiter
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL, authToken string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		authToken:    authToken,
		httpClient:   sharedHTTPClient,
		streamClient: sharedStreamingClient,
		limiter:      rate.NewLimiter(rate.Limit(5), 10),
	}
}

// WithHTTPClient overrides both HTTP clients. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.streamClient = hc
	return c
}

// =============================================================================
// OPTIONS LIST
// =============================================================================

// Options fetches the source-channel options offered for the conversations
// filter.
func (c *Client) Options(ctx context.Context) ([]model.Option, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get_hapaks", nil)
	if err != nil {
		return nil, err
	}

	var opts []model.Option
	if err := c.doJSON(req, &opts); err != nil {
		return nil, fmt.Errorf("fetch options: %w", err)
	}
	return opts, nil
}

// =============================================================================
// CHAT STREAM
// =============================================================================

// ChatStreamRequest opens a generation for one query.
type ChatStreamRequest struct {
	Query         string   `json:"query"`
	Conversations []string `json:"conversations"`
	DateRange     string   `json:"date_range"`
	Keywords      []string `json:"keywords"`
	SessionID     string   `json:"session_id"`
	AuthToken     string   `json:"auth_token"`
}

// Stream is an open chat-stream response. The caller owns Body and must
// close it; the candidate report ids arrive in the headers before the first
// body byte.
type Stream struct {
	QueryID          string
	CandidateReports []string
	Body             io.ReadCloser
}

// ChatStream opens a generation stream. The request is never retried: a
// generation is not idempotent.
func (c *Client) ChatStream(ctx context.Context, req ChatStreamRequest) (*Stream, error) {
	req.AuthToken = c.authToken
	if req.Conversations == nil {
		req.Conversations = []string{}
	}
	if req.Keywords == nil {
		req.Keywords = []string{}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run_chat_stream", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("open chat stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, fmt.Errorf("open chat stream: unexpected status %d", resp.StatusCode)
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, ErrStreamUnavailable
	}

	// request-ids is a JSON array of report ids; absent means none.
	var candidates []string
	if raw := resp.Header.Get(headerRequestIDs); raw != "" {
		if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("parse %s header: %w", headerRequestIDs, err)
		}
	}

	return &Stream{
		QueryID:          resp.Header.Get(headerQueryID),
		CandidateReports: candidates,
		Body:             resp.Body,
	}, nil
}

// =============================================================================
// FEEDBACK
// =============================================================================

// MessageFeedback rates a generated answer. The filter snapshot and the
// answer text travel with the rating.
type MessageFeedback struct {
	Query         string   `json:"query"`
	Keywords      []string `json:"keywords"`
	DateRange     string   `json:"date_range"`
	SessionID     string   `json:"session_id"`
	QueryID       string   `json:"query_id"`
	Conversations []string `json:"conversations"`
	LLMAnswer     string   `json:"llm_answer"`
	IsRelevant    bool     `json:"is_relevant"`
	AuthToken     string   `json:"auth_token"`
}

// SubmitMessageFeedback submits a good/bad rating for a generated message.
func (c *Client) SubmitMessageFeedback(ctx context.Context, fb MessageFeedback) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	fb.AuthToken = c.authToken
	return c.postJSON(ctx, "/submit_feedback", fb, nil)
}

// ReportFeedback rates one report.
type ReportFeedback struct {
	ReportID    string `json:"report_id"`
	ReportTitle string `json:"report_title"`
	QueryID     string `json:"query_id"`
	IsRelevant  bool   `json:"is_relevant"`
	SessionID   string `json:"session_id"`
	AuthToken   string `json:"auth_token"`
}

// SubmitReportFeedback submits a good/bad rating for a report.
func (c *Client) SubmitReportFeedback(ctx context.Context, fb ReportFeedback) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	fb.AuthToken = c.authToken
	return c.postJSON(ctx, "/submit_feedback", fb, nil)
}

// =============================================================================
// REPORTS
// =============================================================================

// getReportRequest is the wire form of a report fetch.
type getReportRequest struct {
	AuthToken string `json:"auth_token"`
	SessionID string `json:"session_id"`
	QueryID   string `json:"query_id"`
	ReportID  string `json:"report_id"`
}

// GetReport fetches one report by its composite key.
func (c *Client) GetReport(ctx context.Context, chatID, queryID, reportID string) (model.Report, error) {
	req := getReportRequest{
		AuthToken: c.authToken,
		SessionID: chatID,
		QueryID:   queryID,
		ReportID:  reportID,
	}

	var report model.Report
	if err := c.postJSON(ctx, "/get_report", req, &report); err != nil {
		return model.Report{}, fmt.Errorf("fetch report %s: %w", reportID, err)
	}
	return report, nil
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

// postJSON posts a JSON payload and optionally decodes a JSON response.
// Transient failures (network errors, 5xx) are retried with exponential
// backoff up to the retry budget.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		lastErr = c.doJSON(req, out)
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// doJSON executes a request and decodes the JSON response into out (when
// out is non-nil).
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return &statusError{Code: resp.StatusCode}
	}

	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// statusError is a non-200 response.
type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// isTransient reports whether an error is worth retrying: network failures
// and server-side 5xx responses.
func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	// Context cancellation is final.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var je *json.SyntaxError
	if errors.As(err, &je) {
		return false
	}
	return true
}
