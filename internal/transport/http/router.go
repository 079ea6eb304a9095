// Package http is the thin presentation-facing surface: REST endpoints for
// every controller operation plus a WebSocket that streams state snapshots.
// It renders nothing; a UI on the other side does.
package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Conference/internal/adapters/sink"
	"github.com/dkeye/Conference/internal/app"
	"github.com/dkeye/Conference/internal/config"
)

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, ctrl *app.Controller, hub *sink.Hub) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ConferenceSessions", store))
	r.Use(ClientTokenMiddleware())

	h := &CallController{Ctrl: ctrl, Hub: hub}

	log.Info().Str("module", "transport.http").Msg("router setup")

	api := r.Group("/api")

	api.POST("/call", h.handleStart)
	api.DELETE("/call", h.handleHangUp)
	api.GET("/call", h.handleState)
	api.POST("/call/mute", h.handleMute)
	api.POST("/call/video", h.handleVideo)
	api.GET("/call/participants", h.handleParticipants)
	api.POST("/call/streams", h.handleStreams)

	api.GET("/ws/events", func(c *gin.Context) {
		log.Info().Str("module", "transport.http").Str("sid", c.GetString("client_token")).Msg("events subscriber connected")
		h.HandleEvents(ctx, c)
	})

	return r
}
