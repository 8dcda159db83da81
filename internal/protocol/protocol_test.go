package protocol

import (
	"encoding/json"
	"testing"

	"github.com/commverse/commverse/internal/domain"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	frame, err := Encode(KindJoinRoom, JoinRoom{RoomID: "standup", Name: "ada"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	env, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != KindJoinRoom {
		t.Fatalf("type = %q, want %q", env.Type, KindJoinRoom)
	}

	p, err := Unwrap[JoinRoom](env)
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	if p.RoomID != "standup" || p.Name != "ada" {
		t.Fatalf("payload = %+v", p)
	}
}

func TestDecodeRejectsMissingType(t *testing.T) {
	if _, err := Decode([]byte(`{"payload":{}}`)); err == nil {
		t.Fatal("expected error for missing type")
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed frame")
	}
}

func TestUnwrapEmptyPayload(t *testing.T) {
	env := Envelope{Type: KindPing}
	if _, err := Unwrap[JoinRoom](env); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

// The hub must never alter a candidate body on relay; the struct keeps it
// as raw JSON so unknown fields survive untouched.
func TestICECandidateBodyStaysOpaque(t *testing.T) {
	body := `{"candidate":"candidate:1 1 udp 2130706431 10.0.0.1 54321 typ host","sdpMid":"0","sdpMLineIndex":0,"usernameFragment":"abcd"}`
	in := ICECandidate{
		Target:    domain.ParticipantID("peer-b"),
		Candidate: json.RawMessage(body),
	}
	frame, err := Encode(KindICECandidate, in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out, err := Unwrap[ICECandidate](env)
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}

	var want, got map[string]any
	if err := json.Unmarshal([]byte(body), &want); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(out.Candidate, &got); err != nil {
		t.Fatalf("candidate body corrupted: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("candidate fields changed: got %v, want %v", got, want)
	}
	for k, v := range want {
		if gv, ok := got[k]; !ok || gv != v {
			t.Fatalf("candidate field %q = %v, want %v", k, gv, v)
		}
	}
}

func TestParticipantWireShape(t *testing.T) {
	p, err := domain.NewParticipant("sid-1", "ada")
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "name", "isAudioEnabled", "isVideoEnabled", "isScreenSharing"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing wire field %q", key)
		}
	}
	if m["isAudioEnabled"] != true || m["isVideoEnabled"] != true || m["isScreenSharing"] != false {
		t.Fatalf("fresh join defaults wrong: %v", m)
	}
}
