// Package rtc wraps pion behind the negotiator's media-session surface so
// the state machine stays testable without a network.
package rtc

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// ErrNoVideoSender reports a replace on a session that never negotiated a
// video sender; callers fall back to adding the track and renegotiating.
var ErrNoVideoSender = errors.New("no video sender on session")

type Session struct {
	pc     *webrtc.PeerConnection
	peerID string

	mu          sync.Mutex
	onICE       func(json.RawMessage)
	onRemote    func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)
	onClosed    func()
	audioSender *webrtc.RTPSender
	videoSender *webrtc.RTPSender
	closed      bool
}

func DefaultConfig(stunURL string) webrtc.Configuration {
	if stunURL == "" {
		stunURL = "stun:stun.l.google.com:19302"
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: []string{stunURL}},
		},
	}
}

func NewSession(cfg webrtc.Configuration, peerID string) (*Session, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	s := &Session{pc: pc, peerID: peerID}

	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		raw, err := json.Marshal(cand.ToJSON())
		if err != nil {
			return
		}
		s.mu.Lock()
		fn := s.onICE
		s.mu.Unlock()
		if fn != nil {
			fn(raw)
		}
	})

	pc.OnICEConnectionStateChange(func(st webrtc.ICEConnectionState) {
		log.Info().Str("module", "peer.rtc").Str("peer", peerID).Str("ice_state", st.String()).Msg("ICE state")
	})

	pc.OnConnectionStateChange(func(st webrtc.PeerConnectionState) {
		log.Info().Str("module", "peer.rtc").Str("peer", peerID).Str("peer_connection_state", st.String()).Msg("peer state")
		if st == webrtc.PeerConnectionStateFailed || st == webrtc.PeerConnectionStateClosed {
			s.mu.Lock()
			fn := s.onClosed
			s.mu.Unlock()
			if fn != nil {
				fn()
			}
		}
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		log.Info().
			Str("module", "peer.rtc").
			Str("peer", peerID).
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Msg("remote track")
		s.mu.Lock()
		fn := s.onRemote
		s.mu.Unlock()
		if fn != nil {
			fn(track, receiver)
		}
	})

	return s, nil
}

func (s *Session) CreateOffer() (string, error) {
	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return "", err
	}
	// Trickle ICE: candidates flow through OnICECandidate, no need to
	// wait for gathering here.
	if err := s.pc.SetLocalDescription(offer); err != nil {
		return "", err
	}
	return offer.SDP, nil
}

func (s *Session) ApplyAnswer(sdp string) error {
	return s.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  sdp,
	})
}

func (s *Session) ApplyOfferAndCreateAnswer(sdp string) (string, error) {
	if err := s.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  sdp,
	}); err != nil {
		return "", err
	}
	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		return "", err
	}
	if err := s.pc.SetLocalDescription(answer); err != nil {
		return "", err
	}
	return answer.SDP, nil
}

func (s *Session) AddICECandidate(raw []byte) error {
	var init webrtc.ICECandidateInit
	if err := json.Unmarshal(raw, &init); err != nil {
		return err
	}
	return s.pc.AddICECandidate(init)
}

func (s *Session) AddLocalTrack(track webrtc.TrackLocal) error {
	sender, err := s.pc.AddTrack(track)
	if err != nil {
		return err
	}
	// Drain RTCP so interceptors keep running.
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	if track.Kind() == webrtc.RTPCodecTypeAudio {
		s.audioSender = sender
	} else {
		s.videoSender = sender
	}
	return nil
}

// ReplaceVideoTrack substitutes the outgoing video source on the existing
// sender. Transport parameters stay untouched; no renegotiation happens.
func (s *Session) ReplaceVideoTrack(track webrtc.TrackLocal) error {
	s.mu.Lock()
	sender := s.videoSender
	s.mu.Unlock()
	if sender == nil {
		return ErrNoVideoSender
	}
	return sender.ReplaceTrack(track)
}

func (s *Session) OnICECandidate(fn func(json.RawMessage)) {
	s.mu.Lock()
	s.onICE = fn
	s.mu.Unlock()
}

func (s *Session) OnRemoteTrack(fn func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)) {
	s.mu.Lock()
	s.onRemote = fn
	s.mu.Unlock()
}

func (s *Session) OnClosed(fn func()) {
	s.mu.Lock()
	s.onClosed = fn
	s.mu.Unlock()
}

func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "peer.rtc").Str("peer", s.peerID).Msg("close error")
	} else {
		log.Info().Str("module", "peer.rtc").Str("peer", s.peerID).Msg("closed")
	}
}
