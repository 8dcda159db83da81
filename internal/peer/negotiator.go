// Package peer implements the client side of a call: the signaling client,
// the per-remote session negotiators, the local track controller and the
// roster reconciliation that keeps a full mesh alive.
package peer

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/domain"
	"github.com/commverse/commverse/internal/peer/rtc"
	"github.com/commverse/commverse/internal/protocol"
)

// MediaSession is the transport-level surface the negotiator drives. The
// pion implementation lives in peer/rtc; tests substitute fakes.
type MediaSession interface {
	CreateOffer() (string, error)
	ApplyAnswer(string) error
	ApplyOfferAndCreateAnswer(string) (string, error)
	AddICECandidate([]byte) error
	AddLocalTrack(webrtc.TrackLocal) error
	ReplaceVideoTrack(webrtc.TrackLocal) error
	OnICECandidate(func(json.RawMessage))
	Close()
}

// SessionFactory builds one MediaSession per remote participant.
type SessionFactory func(remote domain.ParticipantID) (MediaSession, error)

// SignalSender pushes one envelope to the hub.
type SignalSender interface {
	Send(kind protocol.Kind, payload any) error
}

type NegotiationState int

const (
	StateIdle NegotiationState = iota
	StateOffering
	StateOfferSent
	StateStable
)

func (s NegotiationState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOffering:
		return "offering"
	case StateOfferSent:
		return "offer-sent"
	case StateStable:
		return "stable"
	}
	return "unknown"
}

// Negotiator drives one bidirectional media session toward convergence.
// ICE candidates arriving before the remote description are queued and
// flushed in arrival order; none are dropped for ordering reasons.
type Negotiator struct {
	localID   domain.ParticipantID
	remoteID  domain.ParticipantID
	localName string

	sender  SignalSender
	factory SessionFactory
	tracks  func() []webrtc.TrackLocal

	mu            sync.Mutex
	state         NegotiationState
	media         MediaSession
	pending       [][]byte
	remoteApplied bool
	remoteName    string
}

func NewNegotiator(localID, remoteID domain.ParticipantID, localName string, sender SignalSender, factory SessionFactory, tracks func() []webrtc.TrackLocal) *Negotiator {
	return &Negotiator{
		localID:   localID,
		remoteID:  remoteID,
		localName: localName,
		sender:    sender,
		factory:   factory,
		tracks:    tracks,
	}
}

func (n *Negotiator) RemoteID() domain.ParticipantID { return n.remoteID }

func (n *Negotiator) State() NegotiationState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// polite designates the deterministic loser of a glare conflict: the side
// with the lexicographically smaller id gives up its own offer and answers.
func (n *Negotiator) polite() bool {
	return n.localID < n.remoteID
}

func (n *Negotiator) ensureMediaLocked() error {
	if n.media != nil {
		return nil
	}
	m, err := n.factory(n.remoteID)
	if err != nil {
		return err
	}
	for _, t := range n.tracks() {
		if err := m.AddLocalTrack(t); err != nil {
			m.Close()
			return err
		}
	}
	m.OnICECandidate(func(raw json.RawMessage) {
		err := n.sender.Send(protocol.KindICECandidate, protocol.ICECandidate{
			Target:    n.remoteID,
			Candidate: raw,
		})
		if err != nil {
			log.Warn().Err(err).Str("module", "peer.negotiator").Str("remote", string(n.remoteID)).Msg("candidate send")
		}
	})
	n.media = m
	return nil
}

// Offer creates the session if needed, attaches local tracks and sends the
// initial offer, moving from Idle through Offering to Offer-Sent.
func (n *Negotiator) Offer() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == StateOfferSent || n.state == StateStable {
		return nil
	}
	if err := n.ensureMediaLocked(); err != nil {
		return err
	}
	n.state = StateOffering
	sdp, err := n.media.CreateOffer()
	if err != nil {
		n.state = StateIdle
		return err
	}
	err = n.sender.Send(protocol.KindOffer, protocol.SessionDescription{
		Target: n.remoteID,
		SDP:    sdp,
		Name:   n.localName,
	})
	if err != nil {
		n.state = StateIdle
		return err
	}
	n.state = StateOfferSent
	log.Info().Str("module", "peer.negotiator").Str("remote", string(n.remoteID)).Msg("offer sent")
	return nil
}

// HandleOffer applies an inbound offer and answers it. During glare the
// impolite side ignores the offer and keeps its own; the polite side
// discards its pending offer, rebuilds the session from scratch and answers
// on the fresh one. Rebuilding sidesteps SDP rollback, which the transport
// does not support mid-offer.
func (n *Negotiator) HandleOffer(sdp, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.remoteName = name

	switch n.state {
	case StateOffering, StateOfferSent:
		if !n.polite() {
			log.Info().Str("module", "peer.negotiator").Str("remote", string(n.remoteID)).Msg("glare: ignoring offer, keeping own")
			return nil
		}
		log.Info().Str("module", "peer.negotiator").Str("remote", string(n.remoteID)).Msg("glare: discarding own offer")
		n.media.Close()
		n.media = nil
		n.remoteApplied = false
		if err := n.ensureMediaLocked(); err != nil {
			n.state = StateIdle
			return err
		}
	case StateIdle:
		if err := n.ensureMediaLocked(); err != nil {
			return err
		}
	case StateStable:
		// Inbound renegotiation on an established session.
	}

	answer, err := n.media.ApplyOfferAndCreateAnswer(sdp)
	if err != nil {
		return err
	}
	n.remoteApplied = true
	n.flushPendingLocked()

	err = n.sender.Send(protocol.KindAnswer, protocol.SessionDescription{
		Target: n.remoteID,
		SDP:    answer,
		Name:   n.localName,
	})
	if err != nil {
		return err
	}
	n.state = StateStable
	log.Info().Str("module", "peer.negotiator").Str("remote", string(n.remoteID)).Msg("answered offer")
	return nil
}

// HandleAnswer completes the pending offer and settles the session Stable.
func (n *Negotiator) HandleAnswer(sdp string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state != StateOfferSent {
		log.Warn().Str("module", "peer.negotiator").Str("remote", string(n.remoteID)).Str("state", n.state.String()).Msg("unexpected answer")
		return nil
	}
	if err := n.media.ApplyAnswer(sdp); err != nil {
		return err
	}
	n.remoteApplied = true
	n.flushPendingLocked()
	n.state = StateStable
	log.Info().Str("module", "peer.negotiator").Str("remote", string(n.remoteID)).Msg("stable")
	return nil
}

// HandleCandidate applies a remote candidate, queueing it when the remote
// description has not landed yet.
func (n *Negotiator) HandleCandidate(raw []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.remoteApplied || n.media == nil {
		n.pending = append(n.pending, raw)
		return nil
	}
	return n.media.AddICECandidate(raw)
}

func (n *Negotiator) flushPendingLocked() {
	for _, raw := range n.pending {
		if err := n.media.AddICECandidate(raw); err != nil {
			log.Warn().Err(err).Str("module", "peer.negotiator").Str("remote", string(n.remoteID)).Msg("flush candidate")
		}
	}
	n.pending = nil
}

// Renegotiate runs a fresh offer/answer round on an established session,
// for local track additions. The session sits in Offer-Sent until the answer lands.
func (n *Negotiator) Renegotiate() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.renegotiateLocked()
}

func (n *Negotiator) renegotiateLocked() error {
	if n.state != StateStable {
		return nil
	}
	sdp, err := n.media.CreateOffer()
	if err != nil {
		return err
	}
	err = n.sender.Send(protocol.KindOffer, protocol.SessionDescription{
		Target: n.remoteID,
		SDP:    sdp,
		Name:   n.localName,
	})
	if err != nil {
		return err
	}
	n.state = StateOfferSent
	return nil
}

// ReplaceVideoTrack substitutes the outgoing video source in place. Only
// sessions that are negotiating or established carry senders to swap. A
// session that never negotiated a video sender gets the track added and a
// renegotiation round instead.
func (n *Negotiator) ReplaceVideoTrack(t webrtc.TrackLocal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != StateStable && n.state != StateOfferSent {
		return nil
	}
	err := n.media.ReplaceVideoTrack(t)
	if errors.Is(err, rtc.ErrNoVideoSender) {
		if err := n.media.AddLocalTrack(t); err != nil {
			return err
		}
		return n.renegotiateLocked()
	}
	return err
}

// Reset tears the session down and returns to Idle: media closed, queued
// candidates discarded. Used on relay failure and remote departure.
func (n *Negotiator) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.media != nil {
		n.media.Close()
		n.media = nil
	}
	n.pending = nil
	n.remoteApplied = false
	n.state = StateIdle
}

// Close is Reset under a name that reads right at call sites tearing the
// whole call down.
func (n *Negotiator) Close() { n.Reset() }
