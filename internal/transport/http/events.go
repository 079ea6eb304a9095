package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleEvents upgrades to WebSocket and streams state snapshots until the
// client goes away or the server shuts down.
func (h *CallController) HandleEvents(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "transport.http").Msg("ws upgrade")
		return
	}

	events, cancel := h.Hub.Subscribe()
	defer cancel()

	// Reader only detects the peer closing; no inbound frames are expected.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
	defer ws.Close() //nolint:errcheck

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "transport.http").Msg("events writer ctx done")
			return
		case <-gone:
			log.Info().Str("module", "transport.http").Msg("events subscriber gone")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := ws.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "transport.http").Msg("events set deadline")
				return
			}
			if err := ws.WriteJSON(ev); err != nil {
				log.Error().Err(err).Str("module", "transport.http").Msg("events write error")
				return
			}
		}
	}
}
