package orch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/core"
	"github.com/commverse/commverse/internal/domain"
	"github.com/commverse/commverse/internal/protocol"
)

// Chat builds the message, persists it best-effort and broadcasts it to the
// rest of the room. A failing store never blocks delivery.
func (o *Orchestrator) Chat(ctx context.Context, sid core.SID, text string) {
	roster, roomID, ok := o.rosterOf(sid)
	if !ok || text == "" {
		return
	}
	sess, ok := roster.Get(sid)
	if !ok {
		return
	}

	msg := domain.NewChatMessage(roomID, sess.Participant(), text)

	if o.Store != nil {
		if err := o.Store.Save(ctx, msg); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("room", string(roomID)).Msg("chat persistence unavailable")
		}
	}

	o.broadcast(roster, sid, protocol.KindReceiveMessage, msg)
}

// Reaction broadcasts an ephemeral emoji; nothing is persisted.
func (o *Orchestrator) Reaction(sid core.SID, emoji string) {
	roster, _, ok := o.rosterOf(sid)
	if !ok || emoji == "" {
		return
	}
	o.broadcast(roster, sid, protocol.KindReceiveEmoji, protocol.ReceiveEmoji{
		UserID: sid,
		Emoji:  emoji,
	})
}

// Transcript exposes the persisted history for the REST surface.
func (o *Orchestrator) Transcript(ctx context.Context, roomID domain.RoomID) ([]domain.ChatMessage, error) {
	if o.Store == nil {
		return nil, nil
	}
	return o.Store.History(ctx, roomID)
}

// SuggestTopics asks the external summarizer for topics over the recent
// transcript.
func (o *Orchestrator) SuggestTopics(ctx context.Context, roomID domain.RoomID) ([]string, error) {
	if o.Summarizer == nil || !o.Summarizer.Configured() {
		return nil, nil
	}
	msgs, err := o.Transcript(ctx, roomID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return o.Summarizer.SuggestTopics(ctx, msgs)
}
