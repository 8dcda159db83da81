package peer

import (
	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/domain"
	"github.com/commverse/commverse/internal/protocol"
)

// eventLoop consumes hub frames one at a time. Everything that touches the
// roster or a negotiator happens here or under c.mu, so frames for one peer
// are always applied in the order the hub sent them.
func (c *Call) eventLoop() {
	defer close(c.done)
	for env := range c.client.Incoming() {
		if err := c.dispatch(env); err != nil {
			log.Warn().Err(err).Str("module", "peer.call").Str("type", string(env.Type)).Msg("event")
		}
	}
}

func (c *Call) dispatch(env protocol.Envelope) error {
	switch env.Type {
	case protocol.KindWelcome:
		return c.onWelcome(env)
	case protocol.KindExistingUsers:
		return c.onExistingUsers(env)
	case protocol.KindPreviousMessages:
		return c.onHistory(env)
	case protocol.KindUserJoined:
		return c.onUserJoined(env)
	case protocol.KindOffer:
		return c.onOffer(env)
	case protocol.KindAnswer:
		return c.onAnswer(env)
	case protocol.KindICECandidate:
		return c.onCandidate(env)
	case protocol.KindRelayFailed:
		return c.onRelayFailed(env)
	case protocol.KindUserDisconnected:
		return c.onUserDisconnected(env)
	case protocol.KindUserAudioStateChanged:
		return c.onAudioState(env)
	case protocol.KindUserVideoStateChanged:
		return c.onVideoState(env)
	case protocol.KindUserScreenShareStart:
		return c.onShareState(env, true)
	case protocol.KindUserScreenShareStop:
		return c.onShareState(env, false)
	case protocol.KindReceiveMessage:
		return c.onChat(env)
	case protocol.KindReceiveEmoji:
		return c.onReaction(env)
	case protocol.KindError:
		info, err := protocol.Unwrap[protocol.ErrorInfo](env)
		if err != nil {
			return err
		}
		log.Warn().Str("module", "peer.call").Str("error", info.Error).Msg("hub error")
		return nil
	case protocol.KindPong:
		return nil
	}
	log.Debug().Str("module", "peer.call").Str("type", string(env.Type)).Msg("unhandled frame")
	return nil
}

func (c *Call) onWelcome(env protocol.Envelope) error {
	ref, err := protocol.Unwrap[protocol.UserRef](env)
	if err != nil {
		return err
	}
	c.mu.Lock()
	first := c.selfID == ""
	c.selfID = ref.UserID
	c.mu.Unlock()
	if first {
		close(c.welcomed)
	}
	log.Info().Str("module", "peer.call").Str("self", string(ref.UserID)).Msg("welcome")
	return nil
}

// onExistingUsers completes the join: the newcomer records the roster and
// offers to every member already in the room.
func (c *Call) onExistingUsers(env protocol.Envelope) error {
	existing, err := protocol.Unwrap[[]domain.Participant](env)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.joined = true
	negs := make([]*Negotiator, 0, len(existing))
	for _, p := range existing {
		c.roster[p.ID] = p
		negs = append(negs, c.negotiatorForLocked(p.ID))
	}
	c.mu.Unlock()

	for _, p := range existing {
		if c.events.OnPeerJoined != nil {
			c.events.OnPeerJoined(p)
		}
	}
	for _, n := range negs {
		if err := n.Offer(); err != nil {
			log.Warn().Err(err).Str("module", "peer.call").Str("remote", string(n.RemoteID())).Msg("initial offer")
		}
	}
	return nil
}

func (c *Call) onHistory(env protocol.Envelope) error {
	msgs, err := protocol.Unwrap[[]domain.ChatMessage](env)
	if err != nil {
		return err
	}
	if c.events.OnHistory != nil {
		c.events.OnHistory(msgs)
	}
	return nil
}

// onUserJoined only records the newcomer: they offer to us, not the other
// way around, so exactly one side of each pair initiates.
func (c *Call) onUserJoined(env protocol.Envelope) error {
	p, err := protocol.Unwrap[domain.Participant](env)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.roster[p.ID] = p
	c.mu.Unlock()
	if c.events.OnPeerJoined != nil {
		c.events.OnPeerJoined(p)
	}
	return nil
}

func (c *Call) onOffer(env protocol.Envelope) error {
	sd, err := protocol.Unwrap[protocol.SessionDescription](env)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if !c.joined {
		c.mu.Unlock()
		log.Warn().Str("module", "peer.call").Str("caller", string(sd.Caller)).Msg("offer before join, dropped")
		return nil
	}
	n := c.negotiatorForLocked(sd.Caller)
	c.mu.Unlock()
	return n.HandleOffer(sd.SDP, sd.Name)
}

func (c *Call) onAnswer(env protocol.Envelope) error {
	sd, err := protocol.Unwrap[protocol.SessionDescription](env)
	if err != nil {
		return err
	}
	c.mu.Lock()
	n, ok := c.negotiators[sd.Answerer]
	c.mu.Unlock()
	if !ok {
		log.Warn().Str("module", "peer.call").Str("answerer", string(sd.Answerer)).Msg("answer for unknown session")
		return nil
	}
	return n.HandleAnswer(sd.SDP)
}

func (c *Call) onCandidate(env protocol.Envelope) error {
	ic, err := protocol.Unwrap[protocol.ICECandidate](env)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if !c.joined {
		c.mu.Unlock()
		return nil
	}
	n := c.negotiatorForLocked(ic.From)
	c.mu.Unlock()
	return n.HandleCandidate(ic.Candidate)
}

// onRelayFailed resets the session whose counterpart the hub could not
// reach; a later user-joined starts a clean round.
func (c *Call) onRelayFailed(env protocol.Envelope) error {
	rf, err := protocol.Unwrap[protocol.RelayFailed](env)
	if err != nil {
		return err
	}
	c.mu.Lock()
	n, ok := c.negotiators[rf.Target]
	c.mu.Unlock()
	if ok {
		log.Warn().Str("module", "peer.call").Str("remote", string(rf.Target)).Str("kind", string(rf.Kind)).Msg("relay failed, resetting session")
		n.Reset()
	}
	return nil
}

func (c *Call) onUserDisconnected(env protocol.Envelope) error {
	ref, err := protocol.Unwrap[protocol.UserRef](env)
	if err != nil {
		return err
	}
	c.mu.Lock()
	n, had := c.negotiators[ref.UserID]
	_, known := c.roster[ref.UserID]
	delete(c.negotiators, ref.UserID)
	delete(c.roster, ref.UserID)
	c.mu.Unlock()

	// Teardown runs exactly once; a repeated disconnect for the same peer
	// finds nothing left to close.
	if had {
		n.Close()
	}
	if known && c.events.OnPeerLeft != nil {
		c.events.OnPeerLeft(ref.UserID)
	}
	return nil
}

func (c *Call) onAudioState(env protocol.Envelope) error {
	st, err := protocol.Unwrap[protocol.AudioState](env)
	if err != nil {
		return err
	}
	c.updatePeer(st.UserID, func(p *domain.Participant) {
		p.MicEnabled = st.IsAudioEnabled
	})
	return nil
}

func (c *Call) onVideoState(env protocol.Envelope) error {
	st, err := protocol.Unwrap[protocol.VideoState](env)
	if err != nil {
		return err
	}
	c.updatePeer(st.UserID, func(p *domain.Participant) {
		p.CameraEnabled = st.IsVideoEnabled
	})
	return nil
}

func (c *Call) onShareState(env protocol.Envelope, sharing bool) error {
	ss, err := protocol.Unwrap[protocol.ScreenShare](env)
	if err != nil {
		return err
	}
	c.updatePeer(ss.UserID, func(p *domain.Participant) {
		p.IsScreenSharing = sharing
	})
	return nil
}

func (c *Call) updatePeer(id domain.ParticipantID, mutate func(*domain.Participant)) {
	c.mu.Lock()
	p, ok := c.roster[id]
	if ok {
		mutate(&p)
		c.roster[id] = p
	}
	c.mu.Unlock()
	if ok && c.events.OnPeerUpdated != nil {
		c.events.OnPeerUpdated(p)
	}
}

func (c *Call) onChat(env protocol.Envelope) error {
	msg, err := protocol.Unwrap[domain.ChatMessage](env)
	if err != nil {
		return err
	}
	if c.events.OnChat != nil {
		c.events.OnChat(msg)
	}
	return nil
}

func (c *Call) onReaction(env protocol.Envelope) error {
	re, err := protocol.Unwrap[protocol.ReceiveEmoji](env)
	if err != nil {
		return err
	}
	if c.events.OnReaction != nil {
		c.events.OnReaction(re)
	}
	return nil
}
