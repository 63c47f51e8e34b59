// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view.
package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/benamram/tazak-tui/internal/api"
	"github.com/benamram/tazak-tui/internal/model"
	"github.com/benamram/tazak-tui/internal/session"
	"github.com/benamram/tazak-tui/internal/store"
)

// =============================================================================
// STORE COMMANDS
// =============================================================================

// loadChatsCmd loads the persisted collection.
func loadChatsCmd(st *store.Store) tea.Cmd {
	return func() tea.Msg {
		return chatsLoadedMsg{chats: st.Load()}
	}
}

// createChatCmd allocates a new chat seeded with the greeting.
func createChatCmd(st *store.Store) tea.Cmd {
	return func() tea.Msg {
		chat, err := st.Create()
		return chatCreatedMsg{chat: chat, err: err}
	}
}

// appendMessageCmd appends one message to a chat and persists.
func appendMessageCmd(st *store.Store, chatID string, msg model.Message) tea.Cmd {
	return func() tea.Msg {
		chats, err := st.AppendMessage(chatID, msg)
		return storeUpdatedMsg{chats: chats, err: err}
	}
}

// rateMessageCmd stores a message rating (optimistic plus durable) and then
// submits it to the service. The local update is the user-visible truth;
// a failed submission is reported but not rolled back.
func rateMessageCmd(ctx context.Context, st *store.Store, client *api.Client, chatID string, msg model.Message, fb model.Feedback) tea.Cmd {
	return func() tea.Msg {
		rating := fb
		chats, err := st.UpdateMessage(chatID, msg.ID, store.MessagePatch{Feedback: &rating})
		if err != nil {
			return storeUpdatedMsg{chats: chats, err: err}
		}

		err = client.SubmitMessageFeedback(ctx, api.MessageFeedback{
			Query:         msg.Query,
			Keywords:      msg.Filters.Keywords,
			DateRange:     msg.Filters.DateRange,
			SessionID:     chatID,
			QueryID:       msg.QueryID,
			Conversations: msg.Filters.Conversations,
			LLMAnswer:     msg.Content.PlainText(),
			IsRelevant:    fb.IsRelevant(),
		})
		return storeUpdatedMsg{chats: chats, err: err}
	}
}

// =============================================================================
// SERVICE COMMANDS
// =============================================================================

// fetchOptionsCmd fetches the source-channel options.
func fetchOptionsCmd(ctx context.Context, client *api.Client) tea.Cmd {
	return func() tea.Msg {
		opts, err := client.Options(ctx)
		return optionsMsg{options: opts, err: err}
	}
}

// openStreamCmd opens the chat stream and starts a session for it. Starting
// the session supersedes any still-active one before the new stream's first
// record is decoded.
func openStreamCmd(ctx context.Context, client *api.Client, sessions *session.Manager, events chan<- tea.Msg, pending pendingQuery) tea.Cmd {
	return func() tea.Msg {
		stream, err := client.ChatStream(ctx, api.ChatStreamRequest{
			Query:         pending.query,
			Conversations: pending.filters.Conversations,
			DateRange:     pending.filters.DateRange,
			Keywords:      pending.filters.Keywords,
			SessionID:     pending.chatID,
		})
		if err != nil {
			return errMsg{err: err}
		}
		pending.queryID = stream.QueryID

		var sess *session.Session
		observer := func(content model.Content) {
			frame := contentFrameMsg{sess: sess, content: content}
			select {
			case events <- frame:
			default:
				// The UI only needs the latest snapshot; dropping an
				// intermediate frame under backpressure is harmless.
			}
		}
		sess = sessions.Start(stream.CandidateReports, observer)

		return streamStartedMsg{sess: sess, stream: stream, pending: pending}
	}
}

// runSessionCmd consumes the stream to completion.
func runSessionCmd(ctx context.Context, msg streamStartedMsg) tea.Cmd {
	return func() tea.Msg {
		defer msg.stream.Body.Close()
		result, err := msg.sess.Run(ctx, msg.stream.Body)
		return streamDoneMsg{sess: msg.sess, result: result, err: err, pending: msg.pending}
	}
}

// waitEventCmd delivers the next asynchronous event (content frames, report
// cache settles). Re-armed after every delivery.
func waitEventCmd(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// botMessage builds the committed message for a completed generation.
func botMessage(result *session.Result, pending pendingQuery) model.Message {
	return model.Message{
		ID:      uuid.NewString(),
		Sender:  model.SenderBot,
		Content: result.Content,
		Date:    time.Now(),
		Filters: pending.filters,
		Query:   pending.query,
		QueryID: pending.queryID,
	}
}

// userMessage builds the user's own message for a query.
func userMessage(pending pendingQuery) model.Message {
	return model.Message{
		ID:      uuid.NewString(),
		Sender:  model.SenderUser,
		Content: model.PlainContent(pending.query),
		Date:    time.Now(),
		Filters: pending.filters,
		Query:   pending.query,
	}
}
