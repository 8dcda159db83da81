package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is append-only. It is persisted by the external store when one
// is configured, otherwise it lives only in each client's in-memory transcript.
type ChatMessage struct {
	ID         string        `json:"id"`
	RoomID     RoomID        `json:"roomId"`
	Text       string        `json:"text"`
	AuthorID   ParticipantID `json:"userId"`
	SenderName string        `json:"senderName"`
	Timestamp  time.Time     `json:"timestamp"`
}

func NewChatMessage(roomID RoomID, author *Participant, text string) ChatMessage {
	return ChatMessage{
		ID:         uuid.NewString(),
		RoomID:     roomID,
		Text:       text,
		AuthorID:   author.ID,
		SenderName: author.DisplayName,
		Timestamp:  time.Now().UTC(),
	}
}

// Reaction is ephemeral: broadcast once, never persisted.
type Reaction struct {
	AuthorID ParticipantID `json:"userId"`
	Emoji    string        `json:"emoji"`
	IssuedAt time.Time     `json:"issuedAt"`
}
