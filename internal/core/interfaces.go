package core

import "github.com/commverse/commverse/internal/domain"

// Frame is one marshaled signaling envelope.
type Frame []byte

// SID identifies one hub connection. It doubles as the participant id the
// hub hands out: a new connection always means a new identity.
type SID = domain.ParticipantID

// SignalConnection abstracts the messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds a Participant and its transport endpoint.
// This is what a roster stores and fans out to.
type MemberSession interface {
	Participant() *domain.Participant
	Signal() SignalConnection
}

// PublishResult reports delivery stats and backpressure to the orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []MemberSession
}

// Roster is the hub-side source of truth for one room's presence.
// It owns the membership set but never touches transport resources.
type Roster interface {
	Room() *domain.Room
	MemberCount() int
	// Snapshot returns every member's Participant except the excluded one.
	Snapshot(exclude SID) []domain.Participant

	Add(sid SID, ms MemberSession)
	Remove(sid SID)
	Get(sid SID) (MemberSession, bool)
	// UpdateFlags mutates one member's presence flags under the room lock.
	UpdateFlags(sid SID, mutate func(*domain.Participant)) bool

	// Broadcast fans a frame out to every member except from.
	Broadcast(from SID, data Frame) PublishResult
	// Send delivers a frame to exactly one member.
	Send(to SID, data Frame) error
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"memberCount"`
}

// RoomManager owns the set of live rooms.
type RoomManager interface {
	GetOrCreate(id domain.RoomID) Roster
	Get(id domain.RoomID) (Roster, bool)
	// DeleteIfEmpty drops the room when its roster has emptied.
	DeleteIfEmpty(id domain.RoomID) bool
	List() []RoomInfo
	// Touch marks room activity for idle eviction.
	Touch(id domain.RoomID)
}
