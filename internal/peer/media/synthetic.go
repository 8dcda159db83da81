package media

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/rs/zerolog/log"
)

// SyntheticProvider feeds silence and blank video frames. It backs headless
// participants and tests, where no capture hardware exists.
type SyntheticProvider struct{}

func (SyntheticProvider) Microphone(ctx context.Context) (Source, error) {
	return newSyntheticSource(ctx, KindMicrophone, webrtc.MimeTypeOpus, 20*time.Millisecond)
}

func (SyntheticProvider) Camera(ctx context.Context) (Source, error) {
	return newSyntheticSource(ctx, KindCamera, webrtc.MimeTypeVP8, 33*time.Millisecond)
}

func (SyntheticProvider) Screen(ctx context.Context) (Source, error) {
	return newSyntheticSource(ctx, KindScreen, webrtc.MimeTypeVP8, 33*time.Millisecond)
}

type syntheticSource struct {
	kind  TrackKind
	track *webrtc.TrackLocalStaticSample

	mu      sync.Mutex
	enabled bool
	onEnded func()
	cancel  context.CancelFunc
	stopped bool
}

func newSyntheticSource(ctx context.Context, kind TrackKind, mime string, interval time.Duration) (Source, error) {
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: mime},
		string(kind),
		"commverse-"+uuid.NewString(),
	)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &syntheticSource{
		kind:    kind,
		track:   track,
		enabled: true,
		cancel:  cancel,
	}
	go s.pump(ctx, interval)
	return s, nil
}

// pump writes placeholder samples at the capture cadence. A disabled source
// keeps its clock running but writes nothing, mirroring a muted device.
func (s *syntheticSource) pump(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	payload := make([]byte, 16)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.Enabled() {
				continue
			}
			err := s.track.WriteSample(media.Sample{Data: payload, Duration: interval})
			if err != nil {
				log.Debug().Err(err).Str("module", "peer.media").Str("kind", string(s.kind)).Msg("sample write")
			}
		}
	}
}

func (s *syntheticSource) Kind() TrackKind          { return s.kind }
func (s *syntheticSource) Track() webrtc.TrackLocal { return s.track }

func (s *syntheticSource) SetEnabled(v bool) {
	s.mu.Lock()
	s.enabled = v
	s.mu.Unlock()
}

func (s *syntheticSource) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *syntheticSource) OnEnded(fn func()) {
	s.mu.Lock()
	s.onEnded = fn
	s.mu.Unlock()
}

func (s *syntheticSource) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()
	s.cancel()
}

// SimulateEnded mimics the capture side stopping on its own, the way a
// system-level "stop sharing" control would. OnEnded fires exactly once.
func (s *syntheticSource) SimulateEnded() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	fn := s.onEnded
	s.mu.Unlock()

	s.cancel()
	if fn != nil {
		fn()
	}
}
