// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view.
package chat

import (
	"github.com/benamram/tazak-tui/internal/api"
	"github.com/benamram/tazak-tui/internal/model"
	"github.com/benamram/tazak-tui/internal/report"
	"github.com/benamram/tazak-tui/internal/session"
)

// chatsLoadedMsg delivers the persisted collection at startup.
type chatsLoadedMsg struct {
	chats model.Chats
}

// chatCreatedMsg delivers a freshly created chat.
type chatCreatedMsg struct {
	chat model.Chat
	err  error
}

// optionsMsg delivers the source-channel options.
type optionsMsg struct {
	options []model.Option
	err     error
}

// storeUpdatedMsg delivers the collection after a durable write.
type storeUpdatedMsg struct {
	chats model.Chats
	err   error
}

// streamStartedMsg reports an opened chat stream with its session.
type streamStartedMsg struct {
	sess    *session.Session
	stream  *api.Stream
	pending pendingQuery
}

// contentFrameMsg is one incremental content snapshot from a session
// observer. Frames from superseded sessions are identified by pointer and
// dropped.
type contentFrameMsg struct {
	sess    *session.Session
	content model.Content
}

// streamDoneMsg reports the end of a generation session.
type streamDoneMsg struct {
	sess    *session.Session
	result  *session.Result
	err     error
	pending pendingQuery
}

// reportUpdatedMsg reports that a report cache fetch settled.
type reportUpdatedMsg struct {
	key report.Key
}

// errMsg carries a failure the user should see.
type errMsg struct {
	err error
}

// ExternalChatsMsg replaces the projection after the store file changed on
// disk outside this process. Sent with Program.Send by the store watcher.
type ExternalChatsMsg struct {
	Chats model.Chats
}
