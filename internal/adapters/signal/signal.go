// Package signal is the WebSocket edge of the hub. It upgrades connections,
// runs the read/write pumps and dispatches frames into the orchestrator.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/app/orch"
	"github.com/commverse/commverse/internal/core"
	"github.com/commverse/commverse/internal/domain"
	"github.com/commverse/commverse/internal/protocol"
)

var ErrBackpressure = errors.New("backpressure")

type SignalWSController struct {
	Orch      *orch.Orchestrator
	ReadLimit int64
	// PingPeriod drives the keepalive: the hub pings on this interval and
	// drops connections whose pongs stop coming back.
	PingPeriod time.Duration
}

func NewSignalWSController(o *orch.Orchestrator, readLimit int64, pingPeriod time.Duration) *SignalWSController {
	return &SignalWSController{Orch: o, ReadLimit: readLimit, PingPeriod: pingPeriod}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the connection and assigns it a fresh participant id.
// Identity is per-connection: a reconnect always starts clean.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := domain.NewParticipantID()
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	// Placeholder participant until join-room names it.
	p := &domain.Participant{ID: sid}
	sess := core.NewMemberSession(p, conn)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Registry.Bind(sid, sess, cancel)

	// Tell the client its own id right away: politeness during offer glare
	// is decided by comparing ids, so the client must know its own before
	// any negotiation starts.
	if frame, err := protocol.Encode(protocol.KindWelcome, protocol.UserRef{UserID: sid}); err == nil {
		_ = conn.TrySend(frame)
	}

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}
