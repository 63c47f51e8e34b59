// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package report caches reference reports fetched from the service.
//
// Reports are keyed by (chat, report, query) and fetched lazily on first
// request. A key that is absent or still in flight yields a pending state,
// never an error; a stale entry keeps serving its previous value while a
// refresh runs in the background.
//
// Report feedback is optimistic: the cached feedback field is rewritten the
// moment the user rates, independent of the network confirmation and of any
// message-level feedback on the same underlying report.
package report
