package peer

import (
	"context"
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/domain"
	"github.com/commverse/commverse/internal/peer/media"
	"github.com/commverse/commverse/internal/peer/rtc"
	"github.com/commverse/commverse/internal/protocol"
)

var ErrNotJoined = errors.New("not in a call")

// Events are the caller-facing notifications a Call emits. All callbacks run
// on the event loop goroutine; keep them fast.
type Events struct {
	OnHistory     func([]domain.ChatMessage)
	OnChat        func(domain.ChatMessage)
	OnReaction    func(protocol.ReceiveEmoji)
	OnPeerJoined  func(domain.Participant)
	OnPeerLeft    func(domain.ParticipantID)
	OnPeerUpdated func(domain.Participant)
	OnRemoteTrack func(peer domain.ParticipantID, track *webrtc.TrackRemote)
}

// signalLink is what a Call needs from the hub connection. *SignalClient is
// the production implementation.
type signalLink interface {
	SignalSender
	Incoming() <-chan protocol.Envelope
	Close()
}

// Call ties the signaling client, the per-remote negotiators and the track
// controller into one mesh participant. A single event loop goroutine
// consumes hub frames, which preserves the hub's per-peer ordering.
type Call struct {
	client     signalLink
	tracks     *TrackController
	events     Events
	newSession SessionFactory

	name    string
	roomID  domain.RoomID
	stunURL string

	mu          sync.Mutex
	selfID      domain.ParticipantID
	joined      bool
	roster      map[domain.ParticipantID]domain.Participant
	negotiators map[domain.ParticipantID]*Negotiator

	welcomed chan struct{}
	done     chan struct{}
}

type CallConfig struct {
	ServerURL string
	Room      domain.RoomID
	Name      string
	STUNURL   string
	Provider  media.Provider
	Events    Events
}

// Join dials the hub, acquires local media and enters the room. It returns
// once the hub has acknowledged the join with the current roster.
func Join(ctx context.Context, cfg CallConfig) (*Call, error) {
	client, err := Dial(ctx, cfg.ServerURL)
	if err != nil {
		return nil, err
	}

	c := &Call{
		client:      client,
		tracks:      NewTrackController(cfg.Provider),
		events:      cfg.Events,
		name:        cfg.Name,
		roomID:      cfg.Room,
		stunURL:     cfg.STUNURL,
		roster:      make(map[domain.ParticipantID]domain.Participant),
		negotiators: make(map[domain.ParticipantID]*Negotiator),
		welcomed:    make(chan struct{}),
		done:        make(chan struct{}),
	}
	c.newSession = c.pionSession

	c.tracks.OnReplaceVideo(c.replaceVideoEverywhere)
	c.tracks.OnShareStopped(func() {
		_ = client.Send(protocol.KindScreenShareStop, protocol.ScreenShare{RoomID: c.roomID})
	})

	go c.eventLoop()

	select {
	case <-c.welcomed:
	case <-c.done:
		return nil, errors.New("connection closed before welcome")
	case <-ctx.Done():
		c.Leave()
		return nil, ctx.Err()
	}

	if err := c.tracks.Acquire(ctx); err != nil {
		c.Leave()
		return nil, err
	}

	if err := client.Send(protocol.KindJoinRoom, protocol.JoinRoom{RoomID: cfg.Room, Name: cfg.Name}); err != nil {
		c.Leave()
		return nil, err
	}
	return c, nil
}

// SelfID is the hub-assigned identity for this connection.
func (c *Call) SelfID() domain.ParticipantID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selfID
}

// Roster returns a copy of the current view of the room.
func (c *Call) Roster() []domain.Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Participant, 0, len(c.roster))
	for _, p := range c.roster {
		out = append(out, p)
	}
	return out
}

func (c *Call) Done() <-chan struct{} { return c.done }

// pionSession builds the production media session for one remote.
func (c *Call) pionSession(id domain.ParticipantID) (MediaSession, error) {
	s, err := rtc.NewSession(rtc.DefaultConfig(c.stunURL), string(id))
	if err != nil {
		return nil, err
	}
	if c.events.OnRemoteTrack != nil {
		s.OnRemoteTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
			c.events.OnRemoteTrack(id, track)
		})
	}
	return s, nil
}

// negotiatorFor returns the negotiator for a remote, creating it on first
// contact. Caller holds c.mu.
func (c *Call) negotiatorForLocked(remote domain.ParticipantID) *Negotiator {
	if n, ok := c.negotiators[remote]; ok {
		return n
	}
	n := NewNegotiator(c.selfID, remote, c.name, c.client, c.newSession, c.tracks.LocalTracks)
	c.negotiators[remote] = n
	return n
}

func (c *Call) replaceVideoEverywhere(track webrtc.TrackLocal) {
	c.mu.Lock()
	negs := make([]*Negotiator, 0, len(c.negotiators))
	for _, n := range c.negotiators {
		negs = append(negs, n)
	}
	c.mu.Unlock()
	for _, n := range negs {
		if err := n.ReplaceVideoTrack(track); err != nil {
			log.Warn().Err(err).Str("module", "peer.call").Str("remote", string(n.RemoteID())).Msg("video replace")
		}
	}
}

// ToggleMic flips the local audio flag and tells the room.
func (c *Call) ToggleMic() (bool, error) {
	enabled := c.tracks.ToggleMic()
	err := c.client.Send(protocol.KindAudioStateChanged, protocol.AudioState{
		RoomID:         c.roomID,
		IsAudioEnabled: enabled,
	})
	return enabled, err
}

// ToggleCamera flips the local video flag and tells the room. While screen
// sharing the toggle is rejected and nothing goes on the wire.
func (c *Call) ToggleCamera() (bool, error) {
	enabled, err := c.tracks.ToggleCamera()
	if err != nil {
		return enabled, err
	}
	err = c.client.Send(protocol.KindVideoStateChanged, protocol.VideoState{
		RoomID:         c.roomID,
		IsVideoEnabled: enabled,
	})
	return enabled, err
}

// StartScreenShare swaps the screen into the video slot on every session and
// announces it.
func (c *Call) StartScreenShare(ctx context.Context) error {
	if err := c.tracks.StartScreenShare(ctx); err != nil {
		return err
	}
	return c.client.Send(protocol.KindScreenShareStart, protocol.ScreenShare{RoomID: c.roomID})
}

// StopScreenShare restores the camera. The announce frame goes out through
// the controller's share-stopped hook, so the out-of-band end of a share
// reports the same way.
func (c *Call) StopScreenShare() error {
	return c.tracks.StopScreenShare()
}

func (c *Call) SendChat(text string) error {
	return c.client.Send(protocol.KindSendMessage, protocol.SendMessage{RoomID: c.roomID, Message: text})
}

func (c *Call) SendReaction(emoji string) error {
	return c.client.Send(protocol.KindSendEmoji, protocol.SendEmoji{RoomID: c.roomID, Emoji: emoji})
}

// Leave tears the call down synchronously: capture released, every session
// closed, the connection shut. Safe to call more than once.
func (c *Call) Leave() {
	c.mu.Lock()
	c.joined = false
	negs := make([]*Negotiator, 0, len(c.negotiators))
	for id, n := range c.negotiators {
		negs = append(negs, n)
		delete(c.negotiators, id)
	}
	c.roster = make(map[domain.ParticipantID]domain.Participant)
	c.mu.Unlock()

	c.tracks.StopAll()
	for _, n := range negs {
		n.Close()
	}
	c.client.Close()
	log.Info().Str("module", "peer.call").Msg("left call")
}
