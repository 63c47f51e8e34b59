// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the newline-delimited JSON body of a chat-stream
// response into typed records.
//
// The service emits one JSON value per line, each either a text delta
// ({"generated_response": ...}) or a report link ({"generated_link": ...}).
// The decoder is tolerant of arbitrary chunk boundaries: a line split across
// two network reads is reassembled before parsing, and a line that still
// fails to parse is skipped, never fatal.
//
// # Usage
//
//	r := stream.NewReader(resp.Body)
//	err := r.Process(ctx, func(rec stream.Record) {
//	    switch {
//	    case rec.IsText():
//	        // append rec.Text()
//	    case rec.IsLink():
//	        // resolve rec.Link()
//	    }
//	})
//
// Process returns nil on normal end of stream and ctx.Err() if the context
// is cancelled mid-stream. Cancellation is checked before each read and
// before each record is delivered, so a superseded session stops promptly
// even when several lines arrived in one read.
package stream
