// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists the chat collection as one JSON document on disk.
//
// The collection is always read and written wholesale: every mutation is a
// whole-collection read, a shallow field merge, and one atomic write. There
// is no field-level locking and no conflict detection; when two writers race
// on the same file the later whole-collection write wins and the earlier
// interleaved change is silently lost. That window is a documented property
// of the design, not a bug the store hides.
//
// # Two Layers
//
// The store keeps two cooperating views of the collection:
//
//   - The in-memory projection, authoritative for this process. Every
//     mutation applies its merge here synchronously, before the durable
//     write, so observers see the change immediately (optimistic update).
//   - The file on disk, authoritative across restarts. The durable path
//     independently re-reads the file, applies the same merge, and writes
//     the whole collection back atomically.
//
// # Recovery
//
// A missing or unparsable file is treated as an empty collection. Load never
// fails; corruption is logged and discarded.
package store
