package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewParticipantDefaults(t *testing.T) {
	p, err := NewParticipant("sid-1", "ada")
	if err != nil {
		t.Fatal(err)
	}
	if !p.MicEnabled || !p.CameraEnabled || p.IsScreenSharing {
		t.Fatalf("defaults = %+v, want mic+camera on, share off", p)
	}
}

func TestNewParticipantValidation(t *testing.T) {
	if _, err := NewParticipant("sid-1", ""); !errors.Is(err, ErrNameEmpty) {
		t.Fatalf("empty name: %v", err)
	}
	long := strings.Repeat("x", MaxDisplayNameLen+1)
	if _, err := NewParticipant("sid-1", long); !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("long name: %v", err)
	}
	if _, err := NewParticipant("sid-1", strings.Repeat("x", MaxDisplayNameLen)); err != nil {
		t.Fatalf("max-length name rejected: %v", err)
	}
}

func TestParticipantIDsAreUnique(t *testing.T) {
	a, b := NewParticipantID(), NewParticipantID()
	if a == b || a == "" {
		t.Fatalf("ids = %q, %q", a, b)
	}
}
