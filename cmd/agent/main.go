// Command agent is a headless call participant. It joins a room with
// synthetic media and keeps a full mesh alive, which makes it useful for
// load tests and for populating a room during development.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/commverse/commverse/internal/domain"
	"github.com/commverse/commverse/internal/peer"
	"github.com/commverse/commverse/internal/peer/media"
	"github.com/commverse/commverse/internal/protocol"
)

var (
	flagServer  string
	flagRoom    string
	flagName    string
	flagSTUN    string
	flagGreet   string
	flagShare   time.Duration
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "agent",
		Short: "Headless CommVerse call participant",
		RunE:  run,
	}
	root.Flags().StringVar(&flagServer, "server", "ws://localhost:5000/api/ws/signal", "hub signaling endpoint")
	root.Flags().StringVar(&flagRoom, "room", "", "room to join (required)")
	root.Flags().StringVar(&flagName, "name", "agent", "display name")
	root.Flags().StringVar(&flagSTUN, "stun", "", "STUN server URL (defaults to Google's)")
	root.Flags().StringVar(&flagGreet, "greet", "", "chat message to send after joining")
	root.Flags().DurationVar(&flagShare, "share-after", 0, "start a screen share this long after joining (0 disables)")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	_ = root.MarkFlagRequired("room")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if flagVerbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	call, err := peer.Join(ctx, peer.CallConfig{
		ServerURL: flagServer,
		Room:      domain.RoomID(flagRoom),
		Name:      flagName,
		STUNURL:   flagSTUN,
		Provider:  media.SyntheticProvider{},
		Events: peer.Events{
			OnPeerJoined: func(p domain.Participant) {
				log.Info().Str("peer", string(p.ID)).Str("name", p.DisplayName).Msg("peer joined")
			},
			OnPeerLeft: func(id domain.ParticipantID) {
				log.Info().Str("peer", string(id)).Msg("peer left")
			},
			OnChat: func(m domain.ChatMessage) {
				log.Info().Str("from", m.SenderName).Str("text", m.Text).Msg("chat")
			},
			OnReaction: func(r protocol.ReceiveEmoji) {
				log.Info().Str("from", string(r.UserID)).Str("emoji", r.Emoji).Msg("reaction")
			},
			OnRemoteTrack: func(id domain.ParticipantID, track *webrtc.TrackRemote) {
				go drain(track)
			},
		},
	})
	if err != nil {
		return err
	}
	defer call.Leave()
	log.Info().Str("room", flagRoom).Str("self", string(call.SelfID())).Msg("joined")

	if flagGreet != "" {
		if err := call.SendChat(flagGreet); err != nil {
			log.Warn().Err(err).Msg("greet")
		}
	}

	if flagShare > 0 {
		go func() {
			select {
			case <-time.After(flagShare):
				if err := call.StartScreenShare(ctx); err != nil {
					log.Warn().Err(err).Msg("screen share")
				}
			case <-ctx.Done():
			}
		}()
	}

	select {
	case <-ctx.Done():
	case <-call.Done():
		log.Warn().Msg("connection lost")
	}
	return nil
}

// drain discards inbound RTP so the remote keeps its congestion feedback.
func drain(track *webrtc.TrackRemote) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := track.Read(buf); err != nil {
			return
		}
	}
}
