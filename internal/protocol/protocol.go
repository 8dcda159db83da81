// Package protocol defines the signaling wire format shared by the hub and
// its clients. Every frame is an Envelope carrying one of a closed set of
// kinds; payloads the hub relays verbatim (SDP, ICE candidates) stay opaque.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/commverse/commverse/internal/domain"
)

type Kind string

// Client to server.
const (
	KindJoinRoom          Kind = "join-room"
	KindOffer             Kind = "offer"
	KindAnswer            Kind = "answer"
	KindICECandidate      Kind = "ice-candidate"
	KindVideoStateChanged Kind = "video-state-changed"
	KindAudioStateChanged Kind = "audio-state-changed"
	KindScreenShareStart  Kind = "screen-share-started"
	KindScreenShareStop   Kind = "screen-share-stopped"
	KindSendMessage       Kind = "send-message"
	KindSendEmoji         Kind = "send-emoji"
	KindPing              Kind = "ping"
)

// Server to client.
const (
	KindWelcome               Kind = "welcome"
	KindExistingUsers         Kind = "existing-users"
	KindPreviousMessages      Kind = "previous-messages"
	KindUserJoined            Kind = "user-joined"
	KindUserVideoStateChanged Kind = "user-video-state-changed"
	KindUserAudioStateChanged Kind = "user-audio-state-changed"
	KindUserScreenShareStart  Kind = "user-screen-share-started"
	KindUserScreenShareStop   Kind = "user-screen-share-stopped"
	KindReceiveMessage        Kind = "receive-message"
	KindReceiveEmoji          Kind = "receive-emoji"
	KindUserDisconnected      Kind = "user-disconnected"
	KindRelayFailed           Kind = "relay-failed"
	KindError                 Kind = "error"
	KindPong                  Kind = "pong"
)

type Envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinRoom struct {
	RoomID domain.RoomID `json:"roomId"`
	Name   string        `json:"name"`
}

// SessionDescription carries an SDP both directions. Target is set by the
// sender, Caller/Answerer plus Name are stamped in by the hub on relay.
type SessionDescription struct {
	Target   domain.ParticipantID `json:"target,omitempty"`
	Caller   domain.ParticipantID `json:"caller,omitempty"`
	Answerer domain.ParticipantID `json:"answerer,omitempty"`
	SDP      string               `json:"sdp"`
	Name     string               `json:"name,omitempty"`
}

// ICECandidate keeps the candidate body as raw JSON: the hub never parses it.
type ICECandidate struct {
	Target    domain.ParticipantID `json:"target,omitempty"`
	From      domain.ParticipantID `json:"from,omitempty"`
	Candidate json.RawMessage      `json:"candidate"`
}

type VideoState struct {
	RoomID         domain.RoomID        `json:"roomId,omitempty"`
	UserID         domain.ParticipantID `json:"userId,omitempty"`
	IsVideoEnabled bool                 `json:"isVideoEnabled"`
}

type AudioState struct {
	RoomID         domain.RoomID        `json:"roomId,omitempty"`
	UserID         domain.ParticipantID `json:"userId,omitempty"`
	IsAudioEnabled bool                 `json:"isAudioEnabled"`
}

type ScreenShare struct {
	RoomID domain.RoomID        `json:"roomId,omitempty"`
	UserID domain.ParticipantID `json:"userId,omitempty"`
}

type SendMessage struct {
	RoomID  domain.RoomID `json:"roomId"`
	Message string        `json:"message"`
}

type SendEmoji struct {
	RoomID domain.RoomID `json:"roomId"`
	Emoji  string        `json:"emoji"`
}

type ReceiveEmoji struct {
	UserID domain.ParticipantID `json:"userId"`
	Emoji  string               `json:"emoji"`
}

type UserRef struct {
	UserID domain.ParticipantID `json:"userId"`
}

// RelayFailed tells a sender its offer/answer/candidate had no connected
// target, so the stuck session can be reset instead of waiting forever.
type RelayFailed struct {
	Target domain.ParticipantID `json:"target"`
	Kind   Kind                 `json:"kind"`
}

type ErrorInfo struct {
	Error string `json:"error"`
}

// Encode wraps a payload into a marshaled Envelope ready for the wire.
func Encode(kind Kind, payload any) ([]byte, error) {
	env := Envelope{Type: kind}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
		}
		env.Payload = raw
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", kind, err)
	}
	return b, nil
}

// Decode parses an envelope off the wire.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}

// Unwrap decodes the typed payload of an envelope.
func Unwrap[T any](env Envelope) (T, error) {
	var p T
	if len(env.Payload) == 0 {
		return p, fmt.Errorf("%s: empty payload", env.Type)
	}
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return p, fmt.Errorf("%s: bad payload: %w", env.Type, err)
	}
	return p, nil
}
