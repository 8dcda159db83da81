package signal

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/core"
	"github.com/commverse/commverse/internal/protocol"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.pingPeriod())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Info().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) pingPeriod() time.Duration {
	if ctl.PingPeriod > 0 {
		return ctl.PingPeriod
	}
	return 54 * time.Second
}

func (ctl *SignalWSController) readPump(ctx context.Context, sid core.SID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Orch.Disconnect(sid)
		ctl.Orch.Registry.Unbind(sid)
		c.Close()
	}()

	// A pong (or any read) pushes the deadline out; a silent connection
	// times out just past the ping interval.
	pongWait := ctl.pingPeriod() * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
			ctl.handleFrame(ctx, sid, c, data)
		}
	}
}

// handleFrame dispatches one inbound envelope. The kind set is closed;
// anything else is logged and dropped.
func (ctl *SignalWSController) handleFrame(ctx context.Context, sid core.SID, c *WsSignalConn, data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad frame")
		return
	}

	switch env.Type {
	case protocol.KindJoinRoom:
		ctl.handleJoin(ctx, sid, c, env)
	case protocol.KindOffer:
		ctl.handleOffer(sid, c, env)
	case protocol.KindAnswer:
		ctl.handleAnswer(sid, c, env)
	case protocol.KindICECandidate:
		ctl.handleCandidate(sid, c, env)
	case protocol.KindVideoStateChanged:
		ctl.handleVideoState(sid, c, env)
	case protocol.KindAudioStateChanged:
		ctl.handleAudioState(sid, c, env)
	case protocol.KindScreenShareStart:
		ctl.Orch.SetScreenShare(sid, true)
	case protocol.KindScreenShareStop:
		ctl.Orch.SetScreenShare(sid, false)
	case protocol.KindSendMessage:
		ctl.handleChat(ctx, sid, c, env)
	case protocol.KindSendEmoji:
		ctl.handleEmoji(sid, c, env)
	case protocol.KindPing:
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", string(env.Type)).Msg("unknown signal")
	}
}

func (ctl *SignalWSController) send(c *WsSignalConn, kind protocol.Kind, payload any) {
	frame, err := protocol.Encode(kind, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("kind", string(kind)).Msg("encode frame")
		return
	}
	_ = c.TrySend(frame)
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, msg string) {
	ctl.send(c, protocol.KindError, protocol.ErrorInfo{Error: msg})
}
