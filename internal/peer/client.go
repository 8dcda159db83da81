package peer

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/protocol"
)

const (
	dialTimeout  = 10 * time.Second
	writeWait    = 5 * time.Second
	pingInterval = 25 * time.Second
)

var ErrClientClosed = errors.New("signal client closed")

// SignalClient is the client end of the hub's WebSocket signaling channel.
// Incoming envelopes are delivered on a channel so the caller can consume
// them from a single goroutine and keep per-peer ordering intact.
type SignalClient struct {
	conn *websocket.Conn

	incoming chan protocol.Envelope
	outgoing chan []byte
	done     chan struct{}

	mu     sync.Mutex
	closed bool
}

// Dial connects to the hub's signaling endpoint, e.g.
// ws://localhost:5000/api/ws/signal.
func Dial(ctx context.Context, rawURL string) (*SignalClient, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	c := &SignalClient{
		conn:     conn,
		incoming: make(chan protocol.Envelope, 64),
		outgoing: make(chan []byte, 64),
		done:     make(chan struct{}),
	}
	go c.readPump()
	go c.writePump()
	log.Info().Str("module", "peer.client").Str("url", u.String()).Msg("connected to hub")
	return c, nil
}

// Incoming delivers decoded envelopes in wire order. The channel closes when
// the connection drops or Close is called.
func (c *SignalClient) Incoming() <-chan protocol.Envelope {
	return c.incoming
}

// Send encodes and queues one envelope.
func (c *SignalClient) Send(kind protocol.Kind, payload any) error {
	frame, err := protocol.Encode(kind, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClientClosed
	}
	// outgoing is never closed, only abandoned, so sending after Close
	// cannot panic; done unblocks writers once the pump is gone.
	select {
	case c.outgoing <- frame:
		return nil
	case <-c.done:
		return ErrClientClosed
	}
}

func (c *SignalClient) readPump() {
	defer func() {
		c.Close()
		close(c.incoming)
	}()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "peer.client").Msg("read")
			}
			return
		}
		env, err := protocol.Decode(data)
		if err != nil {
			log.Warn().Err(err).Str("module", "peer.client").Msg("bad frame")
			continue
		}
		c.incoming <- env
	}
}

func (c *SignalClient) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	ping, _ := protocol.Encode(protocol.KindPing, nil)
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.outgoing:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Warn().Err(err).Str("module", "peer.client").Msg("write")
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, ping); err != nil {
				c.Close()
				return
			}
		}
	}
}

func (c *SignalClient) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
	_ = c.conn.Close()
}
