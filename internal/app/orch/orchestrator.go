// Package orch wires the hub's signaling operations: rooms, presence,
// verbatim relay, chat and reactions. It never inspects relayed media
// payloads; the hub forwards only small signaling messages.
package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/app"
	"github.com/commverse/commverse/internal/core"
	"github.com/commverse/commverse/internal/domain"
	"github.com/commverse/commverse/internal/protocol"
	"github.com/commverse/commverse/internal/storage"
	"github.com/commverse/commverse/internal/summary"
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.RoomManagerImpl
	Policy   app.Policy

	// Store is optional; nil means chat lives only in client transcripts.
	Store storage.ChatStore
	// Summarizer is optional; consumed by the REST surface.
	Summarizer *summary.Client
}

// broadcast fans an event to everyone in the room except from, then applies
// the backpressure policy to members that could not take the frame.
func (o *Orchestrator) broadcast(roster core.Roster, from core.SID, kind protocol.Kind, payload any) {
	frame, err := protocol.Encode(kind, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("kind", string(kind)).Msg("encode broadcast")
		return
	}
	res := roster.Broadcast(from, frame)
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(roster, slow) {
		case app.KickMember:
			sid := slow.Participant().ID
			log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("kicking slow member")
			o.Disconnect(sid)
			o.Registry.Cancel(sid)
		case app.MarkSlow, app.DropFrame, app.NoAction:
		}
	}
}

// sendTo delivers one event to a single member of the roster.
func (o *Orchestrator) sendTo(roster core.Roster, to core.SID, kind protocol.Kind, payload any) error {
	frame, err := protocol.Encode(kind, payload)
	if err != nil {
		return err
	}
	return roster.Send(to, frame)
}

// rosterOf resolves the caller's current room, touching its idle timer.
func (o *Orchestrator) rosterOf(sid core.SID) (core.Roster, domain.RoomID, bool) {
	roomID, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return nil, "", false
	}
	roster, ok := o.Rooms.Get(roomID)
	if !ok {
		return nil, "", false
	}
	o.Rooms.Touch(roomID)
	return roster, roomID, true
}
