// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view.
//
// The view is a thin shell over the engine packages: queries go through the
// api client, the generation session streams content snapshots into the
// transcript, finished messages and feedback land in the chat store, and
// the report popup reads through the report cache. All engine state lives
// in those packages; this model holds only presentation state.
package chat
