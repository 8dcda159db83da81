package signal

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/core"
	"github.com/commverse/commverse/internal/protocol"
)

func (ctl *SignalWSController) handleChat(ctx context.Context, sid core.SID, c *WsSignalConn, env protocol.Envelope) {
	p, err := protocol.Unwrap[protocol.SendMessage](env)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad chat payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	ctl.Orch.Chat(ctx, sid, p.Message)
}

func (ctl *SignalWSController) handleEmoji(sid core.SID, c *WsSignalConn, env protocol.Envelope) {
	p, err := protocol.Unwrap[protocol.SendEmoji](env)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad emoji payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	ctl.Orch.Reaction(sid, p.Emoji)
}
