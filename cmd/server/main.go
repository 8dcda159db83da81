package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/commverse/commverse/internal/adapters/http"
	"github.com/commverse/commverse/internal/app"
	"github.com/commverse/commverse/internal/app/orch"
	"github.com/commverse/commverse/internal/config"
	"github.com/commverse/commverse/internal/storage/sqlite"
	"github.com/commverse/commverse/internal/summary"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	reg := app.NewRegistry()
	rooms := app.NewRoomManager(cfg.RoomTTL)

	o := &orch.Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Policy:   app.SimplePolicy{},
	}

	if cfg.DBPath != "" {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			// Chat persistence is best-effort: run without backlog.
			log.Warn().Err(err).Msg("chat store unavailable, history disabled")
		} else {
			o.Store = store
			defer store.Close()
			log.Info().Str("path", cfg.DBPath).Msg("chat store ready")
		}
	}

	if cfg.SummarizerURL != "" {
		o.Summarizer = summary.NewClient(summary.Config{
			BaseURL: cfg.SummarizerURL,
			APIKey:  cfg.SummarizerKey,
		})
	}

	rooms.OnEvict(o.EvictRoom)
	go rooms.RunJanitor(ctx)

	r := router.SetupRouter(ctx, cfg, o)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("CommVerse hub started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
