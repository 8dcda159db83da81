package signal

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/core"
	"github.com/commverse/commverse/internal/domain"
	"github.com/commverse/commverse/internal/protocol"
)

func (ctl *SignalWSController) handleJoin(ctx context.Context, sid core.SID, c *WsSignalConn, env protocol.Envelope) {
	p, err := protocol.Unwrap[protocol.JoinRoom](env)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if p.RoomID == "" || p.Name == "" {
		ctl.sendError(c, "roomId and name are required")
		return
	}

	existing, history, err := ctl.Orch.Join(ctx, sid, p.RoomID, p.Name)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join failed")
		ctl.sendError(c, err.Error())
		return
	}

	if existing == nil {
		existing = make([]domain.Participant, 0)
	}
	ctl.send(c, protocol.KindExistingUsers, existing)

	// Backlog goes only to the joiner, and only when a store is wired.
	if ctl.Orch.Store != nil {
		if history == nil {
			history = make([]domain.ChatMessage, 0)
		}
		ctl.send(c, protocol.KindPreviousMessages, history)
	}
}
