package app

import (
	"testing"

	"github.com/commverse/commverse/internal/core"
	"github.com/commverse/commverse/internal/domain"
)

type nopSignal struct{ closed bool }

func (s *nopSignal) TrySend(core.Frame) error { return nil }
func (s *nopSignal) Close()                   { s.closed = true }

func newTestSession(p *domain.Participant) core.MemberSession {
	return core.NewMemberSession(p, &nopSignal{})
}

func TestRegistryRoomLifecycle(t *testing.T) {
	r := NewRegistry()
	p, _ := domain.NewParticipant("a", "alice")
	sig := &nopSignal{}

	canceled := false
	r.Bind("a", core.NewMemberSession(p, sig), func() { canceled = true })

	if _, _, ok := r.RoomOf("a"); ok {
		t.Fatal("fresh session already has a room")
	}
	if !r.SetRoom("a", "standup") {
		t.Fatal("SetRoom on bound session failed")
	}
	roomID, sess, ok := r.RoomOf("a")
	if !ok || roomID != "standup" || sess.Participant().ID != "a" {
		t.Fatalf("RoomOf = %q, %v, %v", roomID, sess, ok)
	}

	r.ClearRoom("a")
	if _, _, ok := r.RoomOf("a"); ok {
		t.Fatal("room survived ClearRoom")
	}

	if !r.Cancel("a") {
		t.Fatal("Cancel on bound session failed")
	}
	if !canceled {
		t.Fatal("cancel func not fired")
	}
	if !sig.closed {
		t.Fatal("Cancel left the transport open")
	}

	r.Unbind("a")
	if _, ok := r.Get("a"); ok {
		t.Fatal("unbound session still resolvable")
	}
	if r.SetRoom("a", "x") {
		t.Fatal("SetRoom on unbound session succeeded")
	}
}

func TestMembersOfRoom(t *testing.T) {
	r := NewRegistry()
	for _, sid := range []core.SID{"a", "b", "c"} {
		p, _ := domain.NewParticipant(sid, "user-"+string(sid))
		r.Bind(sid, newTestSession(p), nil)
	}
	r.SetRoom("a", "standup")
	r.SetRoom("b", "standup")
	r.SetRoom("c", "other")

	members := r.MembersOfRoom("standup")
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2", len(members))
	}
	for _, m := range members {
		if m.SID != "a" && m.SID != "b" {
			t.Fatalf("unexpected member %q", m.SID)
		}
	}
}
