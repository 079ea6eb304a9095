package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkeye/Conference/internal/adapters/sink"
	"github.com/dkeye/Conference/internal/app"
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
)

type CallController struct {
	Ctrl *app.Controller
	Hub  *sink.Hub
}

// POST /api/call — join a conference.
func (h *CallController) handleStart(c *gin.Context) {
	var req struct {
		Conference string `json:"conference"`
		SendVideo  bool   `json:"send_video"`
	}
	if err := c.BindJSON(&req); err != nil || req.Conference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conference"})
		return
	}
	err := h.Ctrl.StartConference(c.Request.Context(), domain.ConferenceName(req.Conference), req.SendVideo)
	switch {
	case errors.Is(err, app.ErrCallInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{
			"state":        h.Ctrl.State().String(),
			"participants": h.Ctrl.Participants(),
		})
	}
}

// DELETE /api/call — hang up. Idempotent.
func (h *CallController) handleHangUp(c *gin.Context) {
	h.Ctrl.HangUp()
	c.Status(http.StatusNoContent)
}

// GET /api/call — state + duration + transport stats.
func (h *CallController) handleState(c *gin.Context) {
	resp := gin.H{"state": h.Ctrl.State().String()}
	if d, ok := h.Ctrl.Duration(); ok {
		resp["duration_ms"] = d.Milliseconds()
	}
	if stats, ok := h.Ctrl.MediaStats(); ok {
		resp["media"] = stats
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/call/mute — flip local audio. The caller reports its current
// state; the controller toggles to the negation.
func (h *CallController) handleMute(c *gin.Context) {
	var req struct {
		Muted bool `json:"muted"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	h.Ctrl.MuteAudio(req.Muted)
	c.Status(http.StatusNoContent)
}

// POST /api/call/video — toggle local video send.
func (h *CallController) handleVideo(c *gin.Context) {
	var req struct {
		Enable bool `json:"enable"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	err := h.Ctrl.SendLocalVideo(c.Request.Context(), req.Enable)
	switch {
	case errors.Is(err, app.ErrNoActiveCall):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.Status(http.StatusNoContent)
	}
}

// GET /api/call/participants — roster snapshot in render order.
func (h *CallController) handleParticipants(c *gin.Context) {
	c.JSON(http.StatusOK, h.Ctrl.Participants())
}

// POST /api/call/streams — one render pass: the UI reports how many tiles it
// considers for display and the participant order; the visibility policy is
// applied once per participant.
func (h *CallController) handleStreams(c *gin.Context) {
	var req struct {
		VisibleCount int      `json:"visible_count"`
		Order        []string `json:"order"`
	}
	if err := c.BindJSON(&req); err != nil || len(req.Order) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid render pass"})
		return
	}
	if req.VisibleCount == 0 {
		req.VisibleCount = len(req.Order)
	}
	for i, id := range req.Order {
		err := h.Ctrl.StreamManager(c.Request.Context(), req.VisibleCount, domain.ParticipantID(id), i)
		if err != nil {
			var engErr *core.EngineError
			if errors.As(err, &engErr) {
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "participant": id})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "participant": id})
			return
		}
	}
	c.Status(http.StatusNoContent)
}
