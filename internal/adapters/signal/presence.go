package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/core"
	"github.com/commverse/commverse/internal/protocol"
)

func (ctl *SignalWSController) handleVideoState(sid core.SID, c *WsSignalConn, env protocol.Envelope) {
	p, err := protocol.Unwrap[protocol.VideoState](env)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad video state payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	ctl.Orch.SetVideo(sid, p.IsVideoEnabled)
}

func (ctl *SignalWSController) handleAudioState(sid core.SID, c *WsSignalConn, env protocol.Envelope) {
	p, err := protocol.Unwrap[protocol.AudioState](env)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad audio state payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	ctl.Orch.SetAudio(sid, p.IsAudioEnabled)
}
