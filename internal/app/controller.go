package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
)

var (
	ErrCallInProgress = errors.New("conference already in progress")
	ErrNoActiveCall   = errors.New("no active call")
)

// Controller owns the single active conference session. It drives the call
// state machine, folds inbound engine events into the roster and issues
// enable/disable stream commands back through the engine capability.
//
// One controller, one logical session; it is not designed for concurrent
// conferences. Session mutation is confined behind mu.
type Controller struct {
	engine      core.Engine
	sink        core.EventSink
	policy      VisibilityPolicy
	displayName string

	mu   sync.Mutex
	sess *session
}

func NewController(engine core.Engine, sink core.EventSink, displayName string) *Controller {
	return &Controller{
		engine:      engine,
		sink:        sink,
		policy:      TileCapPolicy{},
		displayName: displayName,
		sess:        newSession(),
	}
}

// StartConference joins the named conference with simulcast on and video
// receive enabled at the transport level; per-stream suppression is handled
// by the visibility policy, never by disabling receive. A second start while
// a call is live is rejected.
func (c *Controller) StartConference(ctx context.Context, conference domain.ConferenceName, sendLocalVideo bool) error {
	c.mu.Lock()
	// The handle is assigned only after the engine resolves, so a start that
	// is still dialing is guarded by the Connecting state, not the handle.
	if c.sess.handle != nil || c.sess.state == domain.CallConnecting {
		c.mu.Unlock()
		return ErrCallInProgress
	}
	c.sess.state = domain.CallConnecting
	c.mu.Unlock()
	c.sink.CallStateChanged(domain.CallConnecting)

	handle, err := c.engine.CallConference(ctx, conference, core.CallOptions{
		SendVideo:    sendLocalVideo,
		ReceiveVideo: true,
		Simulcast:    true,
	})
	if err != nil {
		c.mu.Lock()
		c.sess.state = domain.CallFailed
		c.sess.roster.Clear()
		c.mu.Unlock()
		c.sink.CallStateChanged(domain.CallFailed)
		c.sink.Error(err.Error())
		log.Error().Err(err).Str("module", "app.controller").Str("conference", string(conference)).Msg("call conference rejected")
		return fmt.Errorf("start conference: %w", err)
	}

	local, err := domain.NewParticipant(handle.ID(), c.displayName)
	if err != nil {
		// Engine handed us an unusable call id; treat as a failed start.
		_ = handle.Hangup()
		c.mu.Lock()
		c.sess.state = domain.CallFailed
		c.mu.Unlock()
		c.sink.CallStateChanged(domain.CallFailed)
		c.sink.Error(err.Error())
		return fmt.Errorf("start conference: %w", err)
	}

	c.mu.Lock()
	c.sess.handle = handle
	c.sess.roster.Add(local)
	c.mu.Unlock()
	c.sink.ParticipantAdded(*local)
	log.Info().Str("module", "app.controller").Str("conference", string(conference)).Str("call_id", string(handle.ID())).Msg("conference started")

	go c.callLoop(handle)
	return nil
}

// HangUp terminates the live call, converging on the same cleanup path as an
// engine-initiated disconnect. Safe to call repeatedly; with no live handle it
// is a no-op.
func (c *Controller) HangUp() {
	c.mu.Lock()
	h := c.sess.handle
	c.mu.Unlock()
	if h == nil {
		return
	}
	if err := h.Hangup(); err != nil {
		log.Warn().Err(err).Str("module", "app.controller").Msg("hangup")
	}
	c.disconnect(h)
}

// MuteAudio flips local audio send to the negation of currentlyMuted and
// signals the new state to the other participants over the call's message
// channel. The signaling half is best-effort: failures are logged, never
// retried, and do not touch local audio state.
func (c *Controller) MuteAudio(currentlyMuted bool) {
	c.mu.Lock()
	h := c.sess.handle
	c.mu.Unlock()
	if h == nil {
		return
	}
	muted := !currentlyMuted
	h.SendAudio(muted)

	text, err := core.MuteSignal{ID: h.ID(), Muted: muted}.Encode()
	if err == nil {
		err = h.SendMessage(text)
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "app.controller").Msg("mute signaling")
	}

	c.mu.Lock()
	var updated domain.Participant
	ok := c.sess.live(h) && c.sess.roster.Update(h.ID(), func(p *domain.Participant) {
		p.IsMuted = muted
		updated = *p
	})
	c.mu.Unlock()
	if ok {
		c.sink.ParticipantUpdated(updated)
	}
}

// SendLocalVideo starts/stops sending the local video stream. A rejection is
// surfaced to the caller and leaves the roster untouched.
func (c *Controller) SendLocalVideo(ctx context.Context, enable bool) error {
	c.mu.Lock()
	h := c.sess.handle
	c.mu.Unlock()
	if h == nil {
		return ErrNoActiveCall
	}
	if err := h.SendVideo(ctx, enable); err != nil {
		return fmt.Errorf("send local video: %w", err)
	}
	return nil
}

// Duration returns the elapsed call duration, or false when no call is live.
func (c *Controller) Duration() (time.Duration, bool) {
	c.mu.Lock()
	h := c.sess.handle
	c.mu.Unlock()
	if h == nil {
		return 0, false
	}
	return h.Duration(), true
}

// MediaStats returns transport receive counters, or false with no live call.
func (c *Controller) MediaStats() (core.MediaStats, bool) {
	c.mu.Lock()
	h := c.sess.handle
	c.mu.Unlock()
	if h == nil {
		return core.MediaStats{}, false
	}
	return h.Stats(), true
}

// State returns the current call state.
func (c *Controller) State() domain.CallState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.state
}

// Participants returns a roster snapshot in join (render) order.
func (c *Controller) Participants() []domain.Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.roster.Snapshot()
}

// StreamManager applies the visibility policy to one participant of a render
// pass. visibleCount is the number of participants considered for display and
// renderIndex the participant's 0-based position in render order. Repeated
// calls with unchanged inputs issue no engine commands.
func (c *Controller) StreamManager(ctx context.Context, visibleCount int, id domain.ParticipantID, renderIndex int) error {
	c.mu.Lock()
	h := c.sess.handle
	if h == nil || id == h.ID() {
		c.mu.Unlock()
		return nil
	}
	p, ok := c.sess.roster.Get(id)
	if !ok || p.StreamID == "" {
		c.mu.Unlock()
		return nil
	}
	ep := findEndpoint(h, id)
	if ep == nil {
		c.mu.Unlock()
		return nil
	}
	action := c.policy.Decide(visibleCount, renderIndex, p.HasEnabledStream)
	c.mu.Unlock()

	switch action {
	case StreamEnable:
		if err := ep.StartReceiving(ctx, p.StreamID); err != nil {
			return fmt.Errorf("enable stream %s: %w", p.StreamID, err)
		}
		c.setStreamEnabled(h, id, true)
	case StreamDisable:
		if err := ep.StopReceiving(ctx, p.StreamID); err != nil {
			return fmt.Errorf("disable stream %s: %w", p.StreamID, err)
		}
		c.setStreamEnabled(h, id, false)
	case StreamNoAction:
	}
	return nil
}

func findEndpoint(h core.CallHandle, id domain.ParticipantID) core.Endpoint {
	for _, ep := range h.Endpoints() {
		if ep.ID() == id {
			return ep
		}
	}
	return nil
}

// setStreamEnabled records the result of a receive command. A command that
// resolves after cleanup, or against a superseded handle, is dropped.
func (c *Controller) setStreamEnabled(h core.CallHandle, id domain.ParticipantID, enabled bool) {
	c.mu.Lock()
	var updated domain.Participant
	ok := c.sess.live(h) && c.sess.roster.Update(id, func(p *domain.Participant) {
		p.HasEnabledStream = enabled
		updated = *p
	})
	c.mu.Unlock()
	if ok {
		c.sink.ParticipantUpdated(updated)
		log.Debug().Str("module", "app.controller").Str("participant", string(id)).Bool("enabled", enabled).Msg("stream visibility changed")
	}
}

// disconnect runs the shared terminal cleanup for h. It reports whether this
// call actually performed the cleanup, so racing disconnect paths publish the
// transition exactly once.
func (c *Controller) disconnect(h core.CallHandle) bool {
	return c.releaseTo(h, domain.CallDisconnected)
}

// releaseTo releases the session and records the terminal state in one
// critical section: a start racing the teardown can never have its fresh
// state stomped by a stale handle's failure.
func (c *Controller) releaseTo(h core.CallHandle, final domain.CallState) bool {
	c.mu.Lock()
	if !c.sess.live(h) {
		c.mu.Unlock()
		return false
	}
	c.sess.release(final)
	c.mu.Unlock()
	c.sink.CallStateChanged(domain.CallDisconnected)
	if final == domain.CallFailed {
		c.sink.CallStateChanged(domain.CallFailed)
	}
	log.Info().Str("module", "app.controller").Str("call_id", string(h.ID())).Msg("call released")
	return true
}
