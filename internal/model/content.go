// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats, messages and reports.
package model

import (
	"strings"
)

// =============================================================================
// SPAN TYPE
// =============================================================================

// SpanKind discriminates the span union. The set is closed: text, a resolved
// report link, or the deferred "more reports" trailer.
type SpanKind string

const (
	SpanText        SpanKind = "text"
	SpanReport      SpanKind = "report"
	SpanMoreReports SpanKind = "more_reports"
)

// ShowReportLabel is the fixed label a resolved report link renders with.
const ShowReportLabel = "Show report"

// Span is one typed segment of message content. Exactly one of the payload
// fields is meaningful, selected by Kind.
type Span struct {
	Kind SpanKind `json:"kind"`

	// Text payload (Kind == SpanText).
	Text string `json:"text,omitempty"`

	// ReportID payload (Kind == SpanReport): a report surfaced inline
	// during streaming.
	ReportID string `json:"report_id,omitempty"`

	// ReportIDs payload (Kind == SpanMoreReports): candidate reports the
	// service prepared but did not surface inline, in candidate order.
	ReportIDs []string `json:"report_ids,omitempty"`
}

// TextSpan returns a text span.
func TextSpan(text string) Span {
	return Span{Kind: SpanText, Text: text}
}

// ReportSpan returns a resolved report link span.
func ReportSpan(reportID string) Span {
	return Span{Kind: SpanReport, ReportID: reportID}
}

// MoreReportsSpan returns the deferred trailer span for the given ids.
func MoreReportsSpan(reportIDs []string) Span {
	return Span{Kind: SpanMoreReports, ReportIDs: reportIDs}
}

// =============================================================================
// CONTENT TYPE
// =============================================================================

// Content is the ordered span sequence forming one message body.
type Content []Span

// PlainContent wraps a flat string as single-span content. Used for user
// messages and the greeting, which never embed references.
func PlainContent(text string) Content {
	if text == "" {
		return Content{}
	}
	return Content{TextSpan(text)}
}

// AppendText appends text to the content, merging into a trailing text span
// so token-by-token streaming does not produce one span per token.
func (c Content) AppendText(text string) Content {
	if text == "" {
		return c
	}
	if n := len(c); n > 0 && c[n-1].Kind == SpanText {
		out := make(Content, n)
		copy(out, c)
		out[n-1].Text += text
		return out
	}
	return append(c, TextSpan(text))
}

// Clone returns a copy whose backing array is not shared with c.
func (c Content) Clone() Content {
	if c == nil {
		return nil
	}
	out := make(Content, len(c))
	copy(out, c)
	for i := range out {
		if out[i].ReportIDs != nil {
			ids := make([]string, len(out[i].ReportIDs))
			copy(ids, out[i].ReportIDs)
			out[i].ReportIDs = ids
		}
	}
	return out
}

// PlainText returns the concatenated text spans, with report references
// omitted. This is the form submitted with message feedback.
func (c Content) PlainText() string {
	var sb strings.Builder
	for _, span := range c {
		if span.Kind == SpanText {
			sb.WriteString(span.Text)
		}
	}
	return sb.String()
}

// ReportIDs returns every report id referenced by the content: inline links
// first (stream order), then the deferred trailer ids.
func (c Content) ReportIDs() []string {
	var ids []string
	for _, span := range c {
		switch span.Kind {
		case SpanReport:
			ids = append(ids, span.ReportID)
		case SpanMoreReports:
			ids = append(ids, span.ReportIDs...)
		}
	}
	return ids
}

// =============================================================================
// MARKDOWN PROJECTION
// =============================================================================

// Markdown projects the content to markdown for transcript rendering.
// Report links use the report:// scheme so the renderer can route link
// activation back to the report cache. The projection is pure: it never
// mutates the spans.
func (c Content) Markdown() string {
	var sb strings.Builder
	for _, span := range c {
		switch span.Kind {
		case SpanText:
			sb.WriteString(span.Text)
		case SpanReport:
			sb.WriteString("[")
			sb.WriteString(ShowReportLabel)
			sb.WriteString("](report://")
			sb.WriteString(span.ReportID)
			sb.WriteString(")")
		case SpanMoreReports:
			if len(span.ReportIDs) == 0 {
				continue
			}
			sb.WriteString("\n\nMore reports: ")
			for i, id := range span.ReportIDs {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString("[")
				sb.WriteString(id)
				sb.WriteString("](report://")
				sb.WriteString(id)
				sb.WriteString(")")
			}
		}
	}
	return sb.String()
}
