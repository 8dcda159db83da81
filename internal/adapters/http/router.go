// Package http wires REST routes and the WS signaling endpoint.
package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/adapters/signal"
	"github.com/commverse/commverse/internal/app/orch"
	"github.com/commverse/commverse/internal/config"
	"github.com/commverse/commverse/internal/domain"
)

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	// GET /api/config hands clients the connection parameters they cannot
	// know upfront, currently the STUN server to gather candidates against.
	api.GET("/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"stunUrl": cfg.STUNURL})
	})

	// GET /api/rooms lists live rooms.
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": o.Rooms.List()})
	})

	// GET /api/rooms/:id returns room presence info.
	api.GET("/rooms/:id", func(c *gin.Context) {
		id := domain.RoomID(c.Param("id"))
		roster, ok := o.Rooms.Get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":           id,
			"memberCount":  roster.MemberCount(),
			"participants": roster.Snapshot(""),
		})
	})

	// GET /api/rooms/:id/messages returns the persisted transcript.
	api.GET("/rooms/:id/messages", func(c *gin.Context) {
		id := domain.RoomID(c.Param("id"))
		msgs, err := o.Transcript(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chat store unavailable"})
			return
		}
		if msgs == nil {
			msgs = make([]domain.ChatMessage, 0)
		}
		c.JSON(http.StatusOK, gin.H{"messages": msgs})
	})

	// POST /api/rooms/:id/topics asks the summarizer for conversation topics.
	api.POST("/rooms/:id/topics", func(c *gin.Context) {
		id := domain.RoomID(c.Param("id"))
		topics, err := o.SuggestTopics(c.Request.Context(), id)
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Str("room", string(id)).Msg("topic suggestion failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "summarizer unavailable"})
			return
		}
		if topics == nil {
			topics = make([]string, 0)
		}
		c.JSON(http.StatusOK, gin.H{"topics": topics})
	})

	ctrl := signal.NewSignalWSController(o, cfg.ReadLimit, cfg.PingPeriod)
	api.GET("/ws/signal", func(c *gin.Context) {
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
