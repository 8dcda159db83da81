// Package media abstracts local capture. A Source owns one live capture
// track; providers hand sources out and classify acquisition failures into
// the recoverable media-access taxonomy.
package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"
)

type TrackKind string

const (
	KindMicrophone TrackKind = "audio"
	KindCamera     TrackKind = "camera"
	KindScreen     TrackKind = "screen"
)

// AccessKind classifies a failed acquisition. Both kinds are recoverable by
// retrying; the UI layer surfaces them with a retry affordance.
type AccessKind string

const (
	AccessPermissionDenied AccessKind = "permission-denied"
	AccessDeviceNotFound   AccessKind = "device-not-found"
)

type AccessError struct {
	Kind AccessKind
	Err  error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("media access (%s): %v", e.Kind, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// AsAccessError extracts the taxonomy from an acquisition failure.
func AsAccessError(err error) (*AccessError, bool) {
	var ae *AccessError
	ok := errors.As(err, &ae)
	return ae, ok
}

// Source is one live capture feed. SetEnabled flips the outgoing flag in
// place; capture keeps running so re-enabling is instant.
type Source interface {
	Kind() TrackKind
	Track() webrtc.TrackLocal
	SetEnabled(bool)
	Enabled() bool
	// OnEnded fires when the capture side stops out-of-band (the
	// system-level "stop sharing" affordance).
	OnEnded(func())
	Stop()
}

// Provider acquires capture sources.
type Provider interface {
	Microphone(ctx context.Context) (Source, error)
	Camera(ctx context.Context) (Source, error)
	Screen(ctx context.Context) (Source, error)
}
