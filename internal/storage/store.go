// Package storage defines the chat persistence collaborator. The hub treats
// it as best-effort: a failing store never blocks message delivery.
package storage

import (
	"context"
	"errors"

	"github.com/commverse/commverse/internal/domain"
)

var ErrUnavailable = errors.New("chat store unavailable")

type ChatStore interface {
	Save(ctx context.Context, msg domain.ChatMessage) error
	// History returns a room's messages in timestamp order, oldest first.
	History(ctx context.Context, roomID domain.RoomID) ([]domain.ChatMessage, error)
	Close() error
}
