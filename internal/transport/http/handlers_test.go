package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Conference/internal/adapters/sink"
	"github.com/dkeye/Conference/internal/app"
	"github.com/dkeye/Conference/internal/config"
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
)

type stubHandle struct {
	events chan core.CallEvent
}

func (h *stubHandle) ID() domain.ParticipantID { return "local" }

func (h *stubHandle) Hangup() error { return nil }

func (h *stubHandle) SendAudio(bool) {}

func (h *stubHandle) SendVideo(context.Context, bool) error { return nil }

func (h *stubHandle) SendMessage(string) error { return nil }

func (h *stubHandle) Duration() time.Duration { return 3 * time.Second }

func (h *stubHandle) Stats() core.MediaStats { return core.MediaStats{Packets: 5, Bytes: 500} }

func (h *stubHandle) Endpoints() []core.Endpoint { return nil }

func (h *stubHandle) Events() <-chan core.CallEvent { return h.events }

type stubEngine struct{}

func (stubEngine) CallConference(context.Context, domain.ConferenceName, core.CallOptions) (core.CallHandle, error) {
	return &stubHandle{events: make(chan core.CallEvent, 1)}, nil
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Mode: "release", Secret: "test-secret"}
	hub := sink.NewHub()
	ctrl := app.NewController(stubEngine{}, hub, "Tester")
	return SetupRouter(context.Background(), cfg, ctrl, hub)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCallLifecycleOverHTTP(t *testing.T) {
	r := testRouter()

	w := doJSON(t, r, http.MethodPost, "/api/call", `{"conference":"room1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var started struct {
		State        string               `json:"state"`
		Participants []domain.Participant `json:"participants"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	require.Equal(t, domain.CallConnecting.String(), started.State)
	require.Len(t, started.Participants, 1)
	require.Equal(t, domain.ParticipantID("local"), started.Participants[0].ID)

	// A second join while live is a conflict.
	w = doJSON(t, r, http.MethodPost, "/api/call", `{"conference":"room2"}`)
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/call", "")
	require.Equal(t, http.StatusOK, w.Code)
	var state map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	require.Equal(t, domain.CallConnecting.String(), state["state"])
	require.Contains(t, state, "duration_ms")
	require.Contains(t, state, "media")

	w = doJSON(t, r, http.MethodPost, "/api/call/mute", `{"muted":false}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/call", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/call", "")
	var after map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &after))
	require.Equal(t, domain.CallDisconnected.String(), after["state"])

	// Hang-up is idempotent at the HTTP surface too.
	w = doJSON(t, r, http.MethodDelete, "/api/call", "")
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestStartRequiresConferenceName(t *testing.T) {
	r := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/call", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/call", `not json`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVideoWithoutCallConflicts(t *testing.T) {
	r := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/call/video", `{"enable":true}`)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestStreamsValidation(t *testing.T) {
	r := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/call/streams", `{"order":[]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown participants are skipped, not errors.
	doJSON(t, r, http.MethodPost, "/api/call", `{"conference":"room1"}`)
	w = doJSON(t, r, http.MethodPost, "/api/call/streams", `{"visible_count":7,"order":["ghost-1","ghost-2"]}`)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestParticipantsSnapshot(t *testing.T) {
	r := testRouter()
	doJSON(t, r, http.MethodPost, "/api/call", `{"conference":"room1"}`)

	w := doJSON(t, r, http.MethodGet, "/api/call/participants", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ps []domain.Participant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ps))
	require.Len(t, ps, 1)
	require.Equal(t, "Tester", ps[0].DisplayName)
}
