// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the report-assistant service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benamram/tazak-tui/internal/model"
)

func newTestClient(server *httptest.Server) *Client {
	return NewClient(server.URL, "tok-123").WithHTTPClient(server.Client())
}

// =============================================================================
// OPTIONS TESTS
// =============================================================================

func TestClient_Options(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/get_hapaks", r.URL.Path)
		json.NewEncoder(w).Encode([]model.Option{
			{Value: "ch-1", Label: "Channel One"},
			{Value: "ch-2", Label: "Channel Two"},
		})
	}))
	defer server.Close()

	opts, err := newTestClient(server).Options(context.Background())
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, "ch-1", opts[0].Value)
}

// =============================================================================
// CHAT STREAM TESTS
// =============================================================================

func TestClient_ChatStreamParsesHeadersAndPayload(t *testing.T) {
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("query-id", "q_42")
		w.Header().Set("request-ids", `["rep-1","rep-2"]`)
		fmt.Fprintln(w, `{"generated_response":"hi"}`)
	}))
	defer server.Close()

	stream, err := newTestClient(server).ChatStream(context.Background(), ChatStreamRequest{
		Query:         "what happened",
		Conversations: []string{"ch-1"},
		DateRange:     "2026-07-28T00:00:00Z",
		SessionID:     "chat-1",
	})
	require.NoError(t, err)
	defer stream.Body.Close()

	assert.Equal(t, "q_42", stream.QueryID)
	assert.Equal(t, []string{"rep-1", "rep-2"}, stream.CandidateReports)

	body, err := io.ReadAll(stream.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "generated_response")

	// The token rides in the payload, not a header.
	assert.Equal(t, "tok-123", gotPayload["auth_token"])
	assert.Equal(t, "chat-1", gotPayload["session_id"])
	// Nil slices are sent as empty arrays.
	assert.Equal(t, []any{}, gotPayload["keywords"])
}

func TestClient_ChatStreamNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("query-id", "q_1")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	stream, err := newTestClient(server).ChatStream(context.Background(), ChatStreamRequest{Query: "x"})
	require.NoError(t, err)
	defer stream.Body.Close()
	assert.Empty(t, stream.CandidateReports)
}

func TestClient_ChatStreamBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server).ChatStream(context.Background(), ChatStreamRequest{Query: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_ChatStreamMalformedCandidateHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("request-ids", `not-json`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := newTestClient(server).ChatStream(context.Background(), ChatStreamRequest{Query: "x"})
	require.Error(t, err)
}

func TestClient_ChatStreamNeverRetries(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server).ChatStream(context.Background(), ChatStreamRequest{Query: "x"})
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

// =============================================================================
// FEEDBACK TESTS
// =============================================================================

func TestClient_SubmitMessageFeedback(t *testing.T) {
	var got MessageFeedback
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/submit_feedback", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := newTestClient(server).SubmitMessageFeedback(context.Background(), MessageFeedback{
		Query:      "what happened",
		QueryID:    "q_1",
		SessionID:  "chat-1",
		LLMAnswer:  "nothing much",
		IsRelevant: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-123", got.AuthToken)
	assert.Equal(t, "q_1", got.QueryID)
	assert.True(t, got.IsRelevant)
}

// =============================================================================
// REPORT TESTS
// =============================================================================

func TestClient_GetReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get_report", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "chat-1", req["session_id"])
		assert.Equal(t, "q_1", req["query_id"])
		assert.Equal(t, "rep-1", req["report_id"])
		json.NewEncoder(w).Encode(model.Report{ID: "rep-1", Title: "Report One"})
	}))
	defer server.Close()

	rep, err := newTestClient(server).GetReport(context.Background(), "chat-1", "q_1", "rep-1")
	require.NoError(t, err)
	assert.Equal(t, "Report One", rep.Title)
}

// =============================================================================
// RETRY TESTS
// =============================================================================

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(model.Report{ID: "rep-1"})
	}))
	defer server.Close()

	_, err := newTestClient(server).GetReport(context.Background(), "c", "q", "rep-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server).GetReport(context.Background(), "c", "q", "rep-1")
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())

	var se *statusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
}
