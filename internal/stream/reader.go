// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the newline-delimited JSON body of a chat-stream
// response into typed records.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
)

// =============================================================================
// RECORD TYPE
// =============================================================================

// Record is one decoded line of the chat stream. Exactly one of the two
// payload fields is set; a line that fits neither shape is never delivered.
type Record struct {
	GeneratedResponse *string `json:"generated_response"`
	GeneratedLink     *string `json:"generated_link"`
}

// IsText reports whether the record carries a text delta.
func (r Record) IsText() bool {
	return r.GeneratedResponse != nil
}

// Text returns the text delta, or "" for link records.
func (r Record) Text() string {
	if r.GeneratedResponse == nil {
		return ""
	}
	return *r.GeneratedResponse
}

// IsLink reports whether the record carries a report link.
func (r Record) IsLink() bool {
	return r.GeneratedLink != nil
}

// Link returns the linked report id, or "" for text records.
func (r Record) Link() string {
	if r.GeneratedLink == nil {
		return ""
	}
	return *r.GeneratedLink
}

// Callback is invoked for each decoded record, in arrival order.
type Callback func(Record)

// =============================================================================
// STREAM READER
// =============================================================================

// Reader performs line-by-line JSON decoding of a streaming response body.
//
// The bufio line reader carries an unterminated trailing segment over to the
// next read, so a record whose bytes span two network chunks is reassembled
// rather than lost as two failed parses.
type Reader struct {
	reader *bufio.Reader

	// lines and skipped count decoded and discarded records for logging.
	lines   int
	skipped int
}

// NewReader creates a stream reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		reader: bufio.NewReader(r),
	}
}

// Process reads the stream until EOF or cancellation, invoking callback for
// each well-formed record. Returns nil on normal completion, ctx.Err() on
// cancellation, and the transport error otherwise.
func (s *Reader) Process(ctx context.Context, callback Callback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := s.reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return err
		}

		// The final line may arrive without a trailing newline.
		atEOF := err == io.EOF

		if rec, ok := s.decodeLine(line); ok {
			// Cancellation stops mid-batch: the record is dropped, not
			// delivered, once the context is done.
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			callback(rec)
		}

		if atEOF {
			return nil
		}
	}
}

// decodeLine parses one line into a record. Empty lines and malformed JSON
// are skipped; the stream continues.
func (s *Reader) decodeLine(line []byte) (Record, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Record{}, false
	}
	s.lines++

	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		s.skipped++
		log.Printf("stream: skipping malformed record %d: %v", s.lines, err)
		return Record{}, false
	}

	// A well-formed JSON object of an unknown shape is still not a record.
	if !rec.IsText() && !rec.IsLink() {
		s.skipped++
		log.Printf("stream: skipping record %d: unknown shape", s.lines)
		return Record{}, false
	}

	return rec, true
}

// Lines returns the number of non-empty lines seen so far.
func (s *Reader) Lines() int {
	return s.lines
}

// Skipped returns the number of lines discarded as malformed.
func (s *Reader) Skipped() int {
	return s.skipped
}
