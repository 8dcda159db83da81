package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/core"
	"github.com/commverse/commverse/internal/protocol"
)

func (ctl *SignalWSController) handleOffer(sid core.SID, c *WsSignalConn, env protocol.Envelope) {
	p, err := protocol.Unwrap[protocol.SessionDescription](env)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad offer payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	ctl.Orch.RelayOffer(sid, p)
}

func (ctl *SignalWSController) handleAnswer(sid core.SID, c *WsSignalConn, env protocol.Envelope) {
	p, err := protocol.Unwrap[protocol.SessionDescription](env)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad answer payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	ctl.Orch.RelayAnswer(sid, p)
}

func (ctl *SignalWSController) handleCandidate(sid core.SID, c *WsSignalConn, env protocol.Envelope) {
	p, err := protocol.Unwrap[protocol.ICECandidate](env)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	ctl.Orch.RelayCandidate(sid, p)
}
