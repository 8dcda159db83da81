package peer

import (
	"context"
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/peer/media"
)

// ErrSharingActive rejects camera toggles while the screen occupies the
// video sender. The camera flag stays as it was.
var ErrSharingActive = errors.New("camera is locked while screen sharing")

var ErrNotSharing = errors.New("no screen share in progress")

// TrackController owns the local capture sources and the single outgoing
// video slot. Mic and camera toggle in place; screen share substitutes the
// video track on every live session and hands the same camera track back
// when it ends, so remote peers never renegotiate.
type TrackController struct {
	provider media.Provider

	// replaceVideo swaps the outgoing video track on all active sessions.
	replaceVideo func(webrtc.TrackLocal)
	// shareStopped fires after a share ends, whichever side initiated it.
	shareStopped func()

	mu      sync.Mutex
	mic     media.Source
	camera  media.Source
	screen  media.Source
	sharing bool
}

func NewTrackController(provider media.Provider) *TrackController {
	return &TrackController{provider: provider}
}

func (t *TrackController) OnReplaceVideo(fn func(webrtc.TrackLocal)) {
	t.mu.Lock()
	t.replaceVideo = fn
	t.mu.Unlock()
}

func (t *TrackController) OnShareStopped(fn func()) {
	t.mu.Lock()
	t.shareStopped = fn
	t.mu.Unlock()
}

// Acquire grabs microphone and camera. Failures carry the media access
// taxonomy so callers can offer a retry.
func (t *TrackController) Acquire(ctx context.Context) error {
	mic, err := t.provider.Microphone(ctx)
	if err != nil {
		return err
	}
	cam, err := t.provider.Camera(ctx)
	if err != nil {
		mic.Stop()
		return err
	}
	t.mu.Lock()
	t.mic = mic
	t.camera = cam
	t.mu.Unlock()
	log.Info().Str("module", "peer.tracks").Msg("mic and camera acquired")
	return nil
}

// LocalTracks returns what new sessions should carry: the mic plus whichever
// source currently owns the video slot.
func (t *TrackController) LocalTracks() []webrtc.TrackLocal {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []webrtc.TrackLocal
	if t.mic != nil {
		out = append(out, t.mic.Track())
	}
	if t.sharing && t.screen != nil {
		out = append(out, t.screen.Track())
	} else if t.camera != nil {
		out = append(out, t.camera.Track())
	}
	return out
}

// ToggleMic flips the outgoing audio flag in place and returns the new state.
// The track itself never changes, so no renegotiation happens.
func (t *TrackController) ToggleMic() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mic == nil {
		return false
	}
	next := !t.mic.Enabled()
	t.mic.SetEnabled(next)
	return next
}

// ToggleCamera flips the outgoing video flag. While a share is active the
// camera is parked and the toggle is rejected with the flag unchanged.
func (t *TrackController) ToggleCamera() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.camera == nil {
		return false, errors.New("no camera source")
	}
	if t.sharing {
		return t.camera.Enabled(), ErrSharingActive
	}
	next := !t.camera.Enabled()
	t.camera.SetEnabled(next)
	return next, nil
}

func (t *TrackController) MicEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mic != nil && t.mic.Enabled()
}

func (t *TrackController) CameraEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.camera != nil && t.camera.Enabled()
}

func (t *TrackController) Sharing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sharing
}

// StartScreenShare acquires a screen source and substitutes it into the
// video slot of every live session. The camera keeps capturing in the
// background so ending the share restores the identical track.
func (t *TrackController) StartScreenShare(ctx context.Context) error {
	t.mu.Lock()
	if t.sharing {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	screen, err := t.provider.Screen(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.sharing {
		t.mu.Unlock()
		screen.Stop()
		return nil
	}
	t.screen = screen
	t.sharing = true
	replace := t.replaceVideo
	t.mu.Unlock()

	// The capture side can end the share on its own (system-level stop).
	// Both paths converge on the same teardown.
	screen.OnEnded(func() {
		log.Info().Str("module", "peer.tracks").Msg("screen capture ended out of band")
		_ = t.StopScreenShare()
	})

	if replace != nil {
		replace(screen.Track())
	}
	log.Info().Str("module", "peer.tracks").Msg("screen share started")
	return nil
}

// StopScreenShare ends the share, restores the camera track on every live
// session and releases the screen capture. Idempotent: the in-app stop and
// the out-of-band capture end race here and the loser is a no-op.
func (t *TrackController) StopScreenShare() error {
	t.mu.Lock()
	if !t.sharing {
		t.mu.Unlock()
		return ErrNotSharing
	}
	t.sharing = false
	screen := t.screen
	t.screen = nil
	replace := t.replaceVideo
	stopped := t.shareStopped
	var camTrack webrtc.TrackLocal
	if t.camera != nil {
		camTrack = t.camera.Track()
	}
	t.mu.Unlock()

	if replace != nil && camTrack != nil {
		replace(camTrack)
	}
	if screen != nil {
		screen.Stop()
	}
	if stopped != nil {
		stopped()
	}
	log.Info().Str("module", "peer.tracks").Msg("screen share stopped")
	return nil
}

// StopAll releases every capture source. Called on leave.
func (t *TrackController) StopAll() {
	t.mu.Lock()
	mic, cam, screen := t.mic, t.camera, t.screen
	t.mic, t.camera, t.screen = nil, nil, nil
	t.sharing = false
	t.mu.Unlock()

	for _, s := range []media.Source{mic, cam, screen} {
		if s != nil {
			s.Stop()
		}
	}
}
