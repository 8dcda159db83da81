package orch

import (
	"github.com/commverse/commverse/internal/core"
	"github.com/commverse/commverse/internal/domain"
	"github.com/commverse/commverse/internal/protocol"
)

// SetAudio updates the sender's mic flag and announces it to the room.
func (o *Orchestrator) SetAudio(sid core.SID, enabled bool) {
	roster, _, ok := o.rosterOf(sid)
	if !ok {
		return
	}
	if !roster.UpdateFlags(sid, func(p *domain.Participant) { p.MicEnabled = enabled }) {
		return
	}
	o.broadcast(roster, sid, protocol.KindUserAudioStateChanged, protocol.AudioState{
		UserID:         sid,
		IsAudioEnabled: enabled,
	})
}

// SetVideo updates the sender's camera flag and announces it to the room.
func (o *Orchestrator) SetVideo(sid core.SID, enabled bool) {
	roster, _, ok := o.rosterOf(sid)
	if !ok {
		return
	}
	if !roster.UpdateFlags(sid, func(p *domain.Participant) { p.CameraEnabled = enabled }) {
		return
	}
	o.broadcast(roster, sid, protocol.KindUserVideoStateChanged, protocol.VideoState{
		UserID:         sid,
		IsVideoEnabled: enabled,
	})
}

// SetScreenShare propagates the announcement only; the media-level track
// substitution happens peer to peer. Single-sharer-per-room stays a client
// intent and is deliberately not enforced here.
func (o *Orchestrator) SetScreenShare(sid core.SID, sharing bool) {
	roster, _, ok := o.rosterOf(sid)
	if !ok {
		return
	}
	if !roster.UpdateFlags(sid, func(p *domain.Participant) { p.IsScreenSharing = sharing }) {
		return
	}
	kind := protocol.KindUserScreenShareStart
	if !sharing {
		kind = protocol.KindUserScreenShareStop
	}
	o.broadcast(roster, sid, kind, protocol.ScreenShare{UserID: sid})
}
