// Package domain contains entities without logic, just meta-data.
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const MaxDisplayNameLen = 36

var (
	ErrNameEmpty   = errors.New("display name empty")
	ErrNameTooLong = errors.New("display name too long")
)

// ParticipantID is opaque and hub-assigned, unique per connection.
// A reconnecting client gets a fresh one; old identity is not recoverable.
type ParticipantID string

func NewParticipantID() ParticipantID {
	return ParticipantID(uuid.NewString())
}

// Participant is one connected member of a room with its presence flags.
// Flags are mutated only by the owning client; removal happens on disconnect.
type Participant struct {
	ID              ParticipantID `json:"id"`
	DisplayName     string        `json:"name"`
	MicEnabled      bool          `json:"isAudioEnabled"`
	CameraEnabled   bool          `json:"isVideoEnabled"`
	IsScreenSharing bool          `json:"isScreenSharing"`
}

// NewParticipant applies the default flag set for a fresh join:
// mic on, camera on, screen share off.
func NewParticipant(id ParticipantID, name string) (*Participant, error) {
	if len(name) == 0 {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxDisplayNameLen {
		return nil, ErrNameTooLong
	}
	return &Participant{
		ID:            id,
		DisplayName:   name,
		MicEnabled:    true,
		CameraEnabled: true,
	}, nil
}
