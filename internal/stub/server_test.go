// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stub serves the tazak wire contract over canned data.
package stub

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benamram/tazak-tui/internal/api"
	"github.com/benamram/tazak-tui/internal/model"
	"github.com/benamram/tazak-tui/internal/session"
)

func newStubClient(t *testing.T, stub *Server) (*api.Client, func()) {
	t.Helper()
	ts := httptest.NewServer(stub.Handler())
	client := api.NewClient(ts.URL, "test-token").WithHTTPClient(ts.Client())
	return client, ts.Close
}

// =============================================================================
// END-TO-END TESTS
// =============================================================================

// The full path a real query takes: open the stream against the stub,
// run a session over the body, check the assembled message.
func TestStub_FullQueryRoundTrip(t *testing.T) {
	stub := NewServer(0).WithDelay(0)
	client, done := newStubClient(t, stub)
	defer done()

	ctx := context.Background()

	opts, err := client.Options(ctx)
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}
	if len(opts) == 0 {
		t.Fatal("no options returned")
	}

	stream, err := client.ChatStream(ctx, api.ChatStreamRequest{
		Query:     "what happened this week",
		SessionID: "chat-1",
	})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	defer stream.Body.Close()

	if stream.QueryID == "" {
		t.Error("query id missing")
	}
	if len(stream.CandidateReports) == 0 {
		t.Fatal("no candidate reports")
	}

	sessions := session.NewManager()
	sess := sessions.Start(stream.CandidateReports, nil)
	result, err := sess.Run(ctx, stream.Body)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	text := result.Content.PlainText()
	if !strings.Contains(text, "logistics") {
		t.Errorf("assembled text = %q", text)
	}

	// The demo script links the first candidate inline; the rest land in
	// the deferred trailer, so every candidate is referenced exactly once.
	ids := result.Content.ReportIDs()
	if len(ids) != len(stream.CandidateReports) {
		t.Fatalf("referenced %d reports, want %d", len(ids), len(stream.CandidateReports))
	}
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Errorf("report %s referenced twice", id)
		}
		seen[id] = true
	}
	if ids[0] != stream.CandidateReports[0] {
		t.Errorf("inline link = %s, want first candidate %s", ids[0], stream.CandidateReports[0])
	}
}

func TestStub_GetReport(t *testing.T) {
	stub := NewServer(0)
	client, done := newStubClient(t, stub)
	defer done()

	ids := stub.reportIDs()
	rep, err := client.GetReport(context.Background(), "chat-1", "q_1", ids[0])
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if rep.ID != ids[0] || rep.Title == "" {
		t.Errorf("report = %+v", rep)
	}
}

func TestStub_FeedbackCounted(t *testing.T) {
	stub := NewServer(0)
	client, done := newStubClient(t, stub)
	defer done()

	err := client.SubmitMessageFeedback(context.Background(), api.MessageFeedback{
		Query:      "q",
		QueryID:    "q_1",
		SessionID:  "chat-1",
		IsRelevant: true,
	})
	if err != nil {
		t.Fatalf("SubmitMessageFeedback failed: %v", err)
	}
	if got := stub.FeedbackCount(); got != 1 {
		t.Errorf("FeedbackCount = %d, want 1", got)
	}
}

// =============================================================================
// CONTRACT TESTS
// =============================================================================

func TestStub_StreamRequiresAuthToken(t *testing.T) {
	stub := NewServer(0)
	ts := httptest.NewServer(stub.Handler())
	defer ts.Close()

	// An empty token never leaves the client helper, so go straight at the
	// endpoint.
	client := api.NewClient(ts.URL, "").WithHTTPClient(ts.Client())
	_, err := client.ChatStream(context.Background(), api.ChatStreamRequest{Query: "x"})
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error = %v, want 401", err)
	}
}

func TestStub_CustomScriptAndReports(t *testing.T) {
	stub := NewServer(0).WithDelay(0).
		WithReports([]model.Report{
			{ID: "rep-a", Title: "Alpha"},
			{ID: "rep-b", Title: "Bravo"},
		}).
		WithScript([]string{
			textLine("only text, no links"),
		})
	client, done := newStubClient(t, stub)
	defer done()

	stream, err := client.ChatStream(context.Background(), api.ChatStreamRequest{Query: "x"})
	if err != nil {
		t.Fatal(err)
	}
	defer stream.Body.Close()

	if len(stream.CandidateReports) != 2 {
		t.Fatalf("candidates = %v", stream.CandidateReports)
	}

	sess := session.NewManager().Start(stream.CandidateReports, nil)
	result, err := sess.Run(context.Background(), stream.Body)
	if err != nil {
		t.Fatal(err)
	}

	// Nothing surfaced inline: both candidates go to the trailer.
	last := result.Content[len(result.Content)-1]
	if last.Kind != model.SpanMoreReports || len(last.ReportIDs) != 2 {
		t.Errorf("trailer span = %+v", last)
	}
}
