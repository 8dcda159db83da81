package orch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/core"
	"github.com/commverse/commverse/internal/domain"
	"github.com/commverse/commverse/internal/protocol"
)

// Join registers the connection in the room, creating it if absent, and
// notifies existing members. It returns the roster snapshot (excluding the
// joiner) and the room's persisted transcript, both destined for the joiner.
func (o *Orchestrator) Join(ctx context.Context, sid core.SID, roomID domain.RoomID, name string) ([]domain.Participant, []domain.ChatMessage, error) {
	// A second join on the same connection moves the member.
	if _, _, ok := o.Registry.RoomOf(sid); ok {
		o.Disconnect(sid)
	}

	sess, ok := o.Registry.Get(sid)
	if !ok {
		return nil, nil, core.ErrNotConnected
	}
	fresh, err := domain.NewParticipant(sid, name)
	if err != nil {
		return nil, nil, err
	}
	*sess.Participant() = *fresh

	roster := o.Rooms.GetOrCreate(roomID)
	existing := roster.Snapshot(sid)
	roster.Add(sid, sess)
	o.Registry.SetRoom(sid, roomID)
	o.Rooms.Touch(roomID)

	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Str("name", name).Msg("joined room")

	o.broadcast(roster, sid, protocol.KindUserJoined, sess.Participant())

	history := o.history(ctx, roomID)
	return existing, history, nil
}

// Disconnect removes the member from its room, broadcasting
// user-screen-share-stopped first when it was the sharing participant,
// then user-disconnected, and deletes the room once empty.
func (o *Orchestrator) Disconnect(sid core.SID) {
	roomID, sess, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	roster, ok := o.Rooms.Get(roomID)
	if !ok {
		o.Registry.ClearRoom(sid)
		return
	}

	wasSharing := sess.Participant().IsScreenSharing
	roster.Remove(sid)
	o.Registry.ClearRoom(sid)

	if wasSharing {
		o.broadcast(roster, sid, protocol.KindUserScreenShareStop, protocol.ScreenShare{UserID: sid})
	}
	o.broadcast(roster, sid, protocol.KindUserDisconnected, protocol.UserRef{UserID: sid})

	o.Rooms.DeleteIfEmpty(roomID)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("disconnected from room")
}

// EvictRoom force-disconnects every remaining member. Used by the idle
// janitor; each member goes through the normal disconnect path so peers see
// the usual broadcasts.
func (o *Orchestrator) EvictRoom(roomID domain.RoomID) {
	for _, snap := range o.Registry.MembersOfRoom(roomID) {
		o.Disconnect(snap.SID)
		o.Registry.Cancel(snap.SID)
	}
}

func (o *Orchestrator) history(ctx context.Context, roomID domain.RoomID) []domain.ChatMessage {
	if o.Store == nil {
		return nil
	}
	msgs, err := o.Store.History(ctx, roomID)
	if err != nil {
		// Persistence is best-effort; the joiner simply gets no backlog.
		log.Warn().Err(err).Str("module", "orch").Str("room", string(roomID)).Msg("chat history unavailable")
		return nil
	}
	return msgs
}
