package core

import (
	"errors"
	"testing"

	"github.com/commverse/commverse/internal/domain"
)

type fakeConn struct {
	frames []Frame
	fail   bool
	closed bool
}

func (f *fakeConn) TrySend(frame Frame) error {
	if f.fail {
		return errors.New("full")
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeConn) Close() { f.closed = true }

func member(t *testing.T, r Roster, sid SID, name string) *fakeConn {
	t.Helper()
	p, err := domain.NewParticipant(sid, name)
	if err != nil {
		t.Fatal(err)
	}
	conn := &fakeConn{}
	r.Add(sid, NewMemberSession(p, conn))
	return conn
}

func TestSnapshotExcludesRequester(t *testing.T) {
	r := NewRoster(&domain.Room{ID: "r1"})
	member(t, r, "a", "alice")
	member(t, r, "b", "bob")

	snap := r.Snapshot("a")
	if len(snap) != 1 || snap[0].ID != "b" {
		t.Fatalf("snapshot = %+v, want only b", snap)
	}
	if r.MemberCount() != 2 {
		t.Fatalf("member count = %d", r.MemberCount())
	}
}

func TestBroadcastSkipsSenderAndReportsDropped(t *testing.T) {
	r := NewRoster(&domain.Room{ID: "r1"})
	sender := member(t, r, "a", "alice")
	ok := member(t, r, "b", "bob")
	slow := member(t, r, "c", "carol")
	slow.fail = true

	res := r.Broadcast("a", Frame(`{"type":"x"}`))
	if res.SentTo != 1 {
		t.Fatalf("sent to %d, want 1", res.SentTo)
	}
	if len(res.Dropped) != 1 || res.Dropped[0].Participant().ID != "c" {
		t.Fatalf("dropped = %v", res.Dropped)
	}
	if len(sender.frames) != 0 {
		t.Fatal("broadcast echoed to sender")
	}
	if len(ok.frames) != 1 {
		t.Fatalf("bob got %d frames", len(ok.frames))
	}
}

func TestSendToMissingMember(t *testing.T) {
	r := NewRoster(&domain.Room{ID: "r1"})
	member(t, r, "a", "alice")

	if err := r.Send("ghost", Frame("x")); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
	if err := r.Send("a", Frame("x")); err != nil {
		t.Fatalf("send to present member: %v", err)
	}
}

func TestUpdateFlags(t *testing.T) {
	r := NewRoster(&domain.Room{ID: "r1"})
	member(t, r, "a", "alice")

	if !r.UpdateFlags("a", func(p *domain.Participant) { p.MicEnabled = false }) {
		t.Fatal("update on present member failed")
	}
	if r.UpdateFlags("ghost", func(p *domain.Participant) {}) {
		t.Fatal("update on absent member succeeded")
	}

	snap := r.Snapshot("")
	if len(snap) != 1 || snap[0].MicEnabled {
		t.Fatalf("flag not applied: %+v", snap)
	}
}

func TestRemove(t *testing.T) {
	r := NewRoster(&domain.Room{ID: "r1"})
	member(t, r, "a", "alice")
	r.Remove("a")
	if r.MemberCount() != 0 {
		t.Fatalf("count = %d after remove", r.MemberCount())
	}
	if _, ok := r.Get("a"); ok {
		t.Fatal("removed member still present")
	}
}
