package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/commverse/commverse/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "chat.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndHistoryRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		msg := domain.ChatMessage{
			ID:         "m" + string(rune('0'+i)),
			RoomID:     "standup",
			Text:       text,
			AuthorID:   "a",
			SenderName: "alice",
			Timestamp:  base.Add(time.Duration(i) * time.Second),
		}
		if err := s.Save(ctx, msg); err != nil {
			t.Fatalf("save %q: %v", text, err)
		}
	}

	got, err := s.History(ctx, "standup")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("history length = %d", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Text != want {
			t.Fatalf("history[%d] = %q, want %q", i, got[i].Text, want)
		}
	}
	if !got[0].Timestamp.Equal(base) {
		t.Fatalf("timestamp = %v, want %v", got[0].Timestamp, base)
	}
	if got[0].AuthorID != "a" || got[0].SenderName != "alice" {
		t.Fatalf("author fields = %+v", got[0])
	}
}

func TestHistoryScopedToRoom(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	save := func(id string, room domain.RoomID) {
		t.Helper()
		err := s.Save(ctx, domain.ChatMessage{
			ID: id, RoomID: room, Text: "x", AuthorID: "a",
			SenderName: "alice", Timestamp: time.Now().UTC(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	save("m1", "one")
	save("m2", "two")

	got, err := s.History(ctx, "one")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("history = %+v", got)
	}

	empty, err := s.History(ctx, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Fatalf("unknown room returned %d messages", len(empty))
	}
}

func TestOpenIsIdempotentOnSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat.sqlite")

	first, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Save(context.Background(), domain.ChatMessage{
		ID: "m1", RoomID: "r", Text: "x", AuthorID: "a",
		SenderName: "alice", Timestamp: time.Now().UTC(),
	}); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	got, err := second.History(context.Background(), "r")
	if err != nil || len(got) != 1 {
		t.Fatalf("history after reopen = %v, %v", got, err)
	}
}
