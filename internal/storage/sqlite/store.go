// Package sqlite persists chat transcripts in a local sqlite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/commverse/commverse/internal/domain"
	"github.com/commverse/commverse/internal/storage"
)

//go:embed schema.sql
var sqlFiles embed.FS

type Store struct {
	db *sql.DB
}

var _ storage.ChatStore = (*Store)(nil)

// Open opens the database at path, creating the file and schema if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("error creating data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error pinging db: %w", err)
	}

	schema, _ := sqlFiles.ReadFile("schema.sql")
	if _, err := db.Exec(string(schema)); err != nil {
		return nil, fmt.Errorf("error creating tables: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(ctx context.Context, msg domain.ChatMessage) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (id, room_id, text, user_id, sender_name, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		msg.ID,
		string(msg.RoomID),
		msg.Text,
		string(msg.AuthorID),
		msg.SenderName,
		msg.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("error inserting message: %w", err)
	}
	return nil
}

func (s *Store) History(ctx context.Context, roomID domain.RoomID) ([]domain.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, room_id, text, user_id, sender_name, timestamp FROM messages WHERE room_id = ? ORDER BY timestamp ASC",
		string(roomID),
	)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	var out []domain.ChatMessage
	for rows.Next() {
		var (
			msg   domain.ChatMessage
			room  string
			user  string
			stamp string
		)
		if err := rows.Scan(&msg.ID, &room, &msg.Text, &user, &msg.SenderName, &stamp); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		msg.RoomID = domain.RoomID(room)
		msg.AuthorID = domain.ParticipantID(user)
		ts, err := time.Parse(time.RFC3339Nano, stamp)
		if err != nil {
			return nil, fmt.Errorf("error parsing timestamp: %w", err)
		}
		msg.Timestamp = ts
		out = append(out, msg)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
