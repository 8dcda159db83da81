package peer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pion/webrtc/v4"

	"github.com/commverse/commverse/internal/peer/media"
)

type fakeSource struct {
	kind  media.TrackKind
	track webrtc.TrackLocal

	mu      sync.Mutex
	enabled bool
	onEnded func()
	stopped bool
}

func newFakeSource(t *testing.T, kind media.TrackKind) *fakeSource {
	t.Helper()
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
		string(kind), "test-"+string(kind),
	)
	if err != nil {
		t.Fatal(err)
	}
	return &fakeSource{kind: kind, track: track, enabled: true}
}

func (s *fakeSource) Kind() media.TrackKind    { return s.kind }
func (s *fakeSource) Track() webrtc.TrackLocal { return s.track }

func (s *fakeSource) SetEnabled(v bool) {
	s.mu.Lock()
	s.enabled = v
	s.mu.Unlock()
}

func (s *fakeSource) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *fakeSource) OnEnded(fn func()) {
	s.mu.Lock()
	s.onEnded = fn
	s.mu.Unlock()
}

func (s *fakeSource) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

// endOutOfBand mimics the system-level stop control.
func (s *fakeSource) endOutOfBand() {
	s.mu.Lock()
	fn := s.onEnded
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type fakeProvider struct {
	t       *testing.T
	mic     *fakeSource
	camera  *fakeSource
	screens []*fakeSource
	fail    error
}

func newFakeProvider(t *testing.T) *fakeProvider {
	return &fakeProvider{
		t:      t,
		mic:    newFakeSource(t, media.KindMicrophone),
		camera: newFakeSource(t, media.KindCamera),
	}
}

func (p *fakeProvider) Microphone(context.Context) (media.Source, error) {
	if p.fail != nil {
		return nil, p.fail
	}
	return p.mic, nil
}

func (p *fakeProvider) Camera(context.Context) (media.Source, error) {
	if p.fail != nil {
		return nil, p.fail
	}
	return p.camera, nil
}

func (p *fakeProvider) Screen(context.Context) (media.Source, error) {
	if p.fail != nil {
		return nil, p.fail
	}
	s := newFakeSource(p.t, media.KindScreen)
	p.screens = append(p.screens, s)
	return s, nil
}

func newTestController(t *testing.T) (*TrackController, *fakeProvider) {
	t.Helper()
	p := newFakeProvider(t)
	tc := NewTrackController(p)
	if err := tc.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	return tc, p
}

func TestTogglesFlipInPlace(t *testing.T) {
	tc, p := newTestController(t)

	if on := tc.ToggleMic(); on {
		t.Fatal("mic still on after toggle")
	}
	if p.mic.Enabled() {
		t.Fatal("mic source not disabled")
	}
	if p.mic.stopped {
		t.Fatal("toggle stopped the mic capture")
	}
	if on := tc.ToggleMic(); !on {
		t.Fatal("mic not restored")
	}

	on, err := tc.ToggleCamera()
	if err != nil || on {
		t.Fatalf("camera toggle = %v, %v", on, err)
	}
	if p.camera.stopped {
		t.Fatal("toggle stopped the camera capture")
	}
}

func TestCameraToggleRejectedWhileSharing(t *testing.T) {
	tc, p := newTestController(t)
	if err := tc.StartScreenShare(context.Background()); err != nil {
		t.Fatal(err)
	}

	before := p.camera.Enabled()
	on, err := tc.ToggleCamera()
	if !errors.Is(err, ErrSharingActive) {
		t.Fatalf("err = %v, want ErrSharingActive", err)
	}
	if on != before || p.camera.Enabled() != before {
		t.Fatal("rejected toggle changed the camera flag")
	}
}

func TestScreenShareSubstitutesAndRestoresSameTrack(t *testing.T) {
	tc, p := newTestController(t)

	var replaced []webrtc.TrackLocal
	tc.OnReplaceVideo(func(track webrtc.TrackLocal) { replaced = append(replaced, track) })

	if err := tc.StartScreenShare(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !tc.Sharing() {
		t.Fatal("not marked sharing")
	}
	if len(replaced) != 1 || replaced[0] != p.screens[0].track {
		t.Fatal("screen track not substituted")
	}
	if p.camera.stopped {
		t.Fatal("camera released during share")
	}

	if err := tc.StopScreenShare(); err != nil {
		t.Fatal(err)
	}
	if tc.Sharing() {
		t.Fatal("still marked sharing")
	}
	if len(replaced) != 2 {
		t.Fatalf("replace calls = %d", len(replaced))
	}
	// The restored track is the same object the camera has carried all
	// along, so remote senders keep their parameters.
	if replaced[1] != p.camera.track {
		t.Fatal("camera track identity changed across the share")
	}
	if !p.screens[0].stopped {
		t.Fatal("screen capture not released")
	}
}

func TestOutOfBandStopConverges(t *testing.T) {
	tc, p := newTestController(t)

	var replaced []webrtc.TrackLocal
	var stoppedEvents int
	tc.OnReplaceVideo(func(track webrtc.TrackLocal) { replaced = append(replaced, track) })
	tc.OnShareStopped(func() { stoppedEvents++ })

	if err := tc.StartScreenShare(context.Background()); err != nil {
		t.Fatal(err)
	}
	p.screens[0].endOutOfBand()

	if tc.Sharing() {
		t.Fatal("share survived out-of-band end")
	}
	if len(replaced) != 2 || replaced[1] != p.camera.track {
		t.Fatal("camera not restored after out-of-band end")
	}
	if stoppedEvents != 1 {
		t.Fatalf("share-stopped fired %d times", stoppedEvents)
	}

	// The in-app stop after the fact is a no-op.
	if err := tc.StopScreenShare(); !errors.Is(err, ErrNotSharing) {
		t.Fatalf("err = %v, want ErrNotSharing", err)
	}
	if stoppedEvents != 1 {
		t.Fatal("share-stopped fired again")
	}
}

func TestLocalTracksFollowVideoSlot(t *testing.T) {
	tc, p := newTestController(t)

	tracks := tc.LocalTracks()
	if len(tracks) != 2 || tracks[1] != p.camera.track {
		t.Fatalf("tracks = %v", tracks)
	}

	if err := tc.StartScreenShare(context.Background()); err != nil {
		t.Fatal(err)
	}
	tracks = tc.LocalTracks()
	if len(tracks) != 2 || tracks[1] != p.screens[0].track {
		t.Fatal("new sessions would not carry the screen while sharing")
	}
}

func TestAcquireClassifiedFailure(t *testing.T) {
	p := newFakeProvider(t)
	p.fail = &media.AccessError{Kind: media.AccessPermissionDenied, Err: errors.New("denied")}
	tc := NewTrackController(p)

	err := tc.Acquire(context.Background())
	ae, ok := media.AsAccessError(err)
	if !ok || ae.Kind != media.AccessPermissionDenied {
		t.Fatalf("err = %v", err)
	}
}

func TestStopAllReleasesEverything(t *testing.T) {
	tc, p := newTestController(t)
	if err := tc.StartScreenShare(context.Background()); err != nil {
		t.Fatal(err)
	}
	tc.StopAll()

	if !p.mic.stopped || !p.camera.stopped || !p.screens[0].stopped {
		t.Fatal("a capture source survived StopAll")
	}
	if tc.Sharing() {
		t.Fatal("still marked sharing")
	}
}
