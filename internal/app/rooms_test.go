package app

import (
	"testing"
	"time"

	"github.com/commverse/commverse/internal/domain"
)

func TestGetOrCreateIsIdempotent(t *testing.T) {
	m := NewRoomManager(time.Minute)
	a := m.GetOrCreate("standup")
	b := m.GetOrCreate("standup")
	if a != b {
		t.Fatal("same id produced two rosters")
	}
	if len(m.List()) != 1 {
		t.Fatalf("rooms = %d, want 1", len(m.List()))
	}
}

func TestDeleteIfEmpty(t *testing.T) {
	m := NewRoomManager(time.Minute)
	roster := m.GetOrCreate("standup")

	p, _ := domain.NewParticipant("a", "alice")
	roster.Add("a", newTestSession(p))

	if m.DeleteIfEmpty("standup") {
		t.Fatal("deleted a room with members")
	}
	roster.Remove("a")
	if !m.DeleteIfEmpty("standup") {
		t.Fatal("empty room survived")
	}
	if _, ok := m.Get("standup"); ok {
		t.Fatal("deleted room still resolvable")
	}
}

func TestIdleEviction(t *testing.T) {
	m := NewRoomManager(10 * time.Millisecond)
	m.GetOrCreate("stale")

	var evicted []domain.RoomID
	m.OnEvict(func(id domain.RoomID) { evicted = append(evicted, id) })

	time.Sleep(20 * time.Millisecond)
	m.GetOrCreate("fresh")
	m.evictIdle()

	if len(evicted) != 1 || evicted[0] != "stale" {
		t.Fatalf("evicted = %v, want [stale]", evicted)
	}
	if _, ok := m.Get("stale"); ok {
		t.Fatal("stale room survived eviction")
	}
	if _, ok := m.Get("fresh"); !ok {
		t.Fatal("fresh room was evicted")
	}
}

func TestTouchResetsIdleTimer(t *testing.T) {
	m := NewRoomManager(20 * time.Millisecond)
	m.GetOrCreate("busy")

	time.Sleep(15 * time.Millisecond)
	m.Touch("busy")
	time.Sleep(10 * time.Millisecond)
	m.evictIdle()

	if _, ok := m.Get("busy"); !ok {
		t.Fatal("touched room was evicted")
	}
}
