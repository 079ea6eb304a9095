package engine

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
)

// Call is one live conference call handle. The signaling socket is owned here:
// writePump drains send, readPump dispatches inbound frames into the event
// channels. readPump is the only writer of those channels and closes them all
// on exit, which is what unsubscribes the controller.
type Call struct {
	id   domain.ParticipantID
	conn *websocket.Conn
	send chan []byte

	events  chan core.CallEvent
	limiter *msgLimiter
	media   *mediaConn

	rtcConfig webrtc.Configuration

	mu          sync.RWMutex
	closed      bool
	connectedAt time.Time
	endpoints   map[domain.ParticipantID]*remoteEndpoint
	order       []domain.ParticipantID
}

func newCall(ws *websocket.Conn, rtcConfig webrtc.Configuration) *Call {
	return &Call{
		conn:      ws,
		send:      make(chan []byte, 32),
		events:    make(chan core.CallEvent, 32),
		limiter:   newMsgLimiter(10, time.Second),
		rtcConfig: rtcConfig,
		endpoints: make(map[domain.ParticipantID]*remoteEndpoint),
	}
}

func (c *Call) ID() domain.ParticipantID { return c.id }

func (c *Call) Events() <-chan core.CallEvent { return c.events }

// Hangup tells the engine to terminate the call and closes the socket. The
// socket close makes readPump exit, which closes every event channel.
func (c *Call) Hangup() error {
	err := c.trySend(envelope{Type: typeHangup})
	c.shutdown()
	if err != nil && err != ErrCallClosed {
		return &core.EngineError{Op: "hangup", Err: err}
	}
	return nil
}

// SendAudio toggles local audio send. Fire-and-forget per the engine contract.
func (c *Call) SendAudio(muted bool) {
	if err := c.trySend(envelope{Type: typeSendAudio, Muted: muted}); err != nil {
		log.Warn().Err(err).Str("module", "adapters.engine").Msg("send audio")
	}
}

// SendVideo asks the engine to start/stop the local video stream.
func (c *Call) SendVideo(ctx context.Context, enable bool) error {
	if err := c.trySend(envelope{Type: typeSendVideo, Enable: enable}); err != nil {
		return &core.EngineError{Op: "send video", Err: err}
	}
	return nil
}

// SendMessage publishes text on the call's signaling channel. Outbound
// messages are rate limited to keep a chatty client from flooding the socket.
func (c *Call) SendMessage(text string) error {
	if !c.limiter.Allow(c.id) {
		return &core.EngineError{Op: "message", Err: ErrRateLimited}
	}
	if err := c.trySend(envelope{Type: typeMessage, Text: text}); err != nil {
		return &core.EngineError{Op: "message", Err: err}
	}
	return nil
}

// Stats reports transport-level receive counters.
func (c *Call) Stats() core.MediaStats {
	if c.media == nil {
		return core.MediaStats{}
	}
	return c.media.Stats()
}

// Duration reports time since the engine confirmed the call.
func (c *Call) Duration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.connectedAt.IsZero() {
		return 0
	}
	return time.Since(c.connectedAt)
}

// Endpoints returns the live endpoints in join order.
func (c *Call) Endpoints() []core.Endpoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.Endpoint, 0, len(c.order))
	for _, id := range c.order {
		if ep, ok := c.endpoints[id]; ok {
			out = append(out, ep)
		}
	}
	return out
}

func (c *Call) startMedia(ctx context.Context, sendVideo bool) error {
	m, err := newMediaConn(c.rtcConfig, sendVideo)
	if err != nil {
		return err
	}
	c.media = m
	m.onICECandidate(func(ci webrtc.ICECandidateInit) {
		env := envelope{Type: typeCandidate, Candidate: ci.Candidate}
		if ci.SDPMid != nil {
			env.SDPMid = *ci.SDPMid
		}
		if ci.SDPMLineIndex != nil {
			env.SDPMLineIndex = *ci.SDPMLineIndex
		}
		if err := c.trySend(env); err != nil {
			log.Warn().Err(err).Str("module", "adapters.engine").Msg("send candidate")
		}
	})
	offer, err := m.createAndSetOffer(ctx)
	if err != nil {
		return err
	}
	return c.trySend(envelope{Type: typeOffer, SDP: offer.SDP})
}

// trySend marshals env into the buffered send channel. A full channel is
// backpressure, not a reason to block signaling.
func (c *Call) trySend(env envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrCallClosed
	}
	select {
	case c.send <- b:
		return nil
	default:
		return ErrBackpressure
	}
}

// shutdown closes the socket and the send channel exactly once. Event
// channels are closed by readPump on its way out.
func (c *Call) shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	_ = c.conn.Close()
	if c.media != nil {
		c.media.close()
	}
}

func (c *Call) writePump() {
	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
			log.Error().Err(err).Str("module", "adapters.engine").Msg("writePump set deadline")
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Error().Err(err).Str("module", "adapters.engine").Msg("writePump write error")
			return
		}
	}
}

func (c *Call) readPump() {
	terminal := false
	defer func() {
		// A socket drop without a terminal frame is a call failure.
		if !terminal {
			c.events <- core.CallFailed{Reason: "signaling connection lost"}
		}
		c.shutdown()
		c.mu.Lock()
		eps := make([]*remoteEndpoint, 0, len(c.endpoints))
		for _, ep := range c.endpoints {
			eps = append(eps, ep)
		}
		c.mu.Unlock()
		for _, ep := range eps {
			ep.close()
		}
		close(c.events)
	}()

	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			c.mu.RLock()
			closed := c.closed
			c.mu.RUnlock()
			if closed {
				terminal = true
			} else {
				log.Error().Err(err).Str("module", "adapters.engine").Str("call_id", string(c.id)).Msg("readPump read error")
			}
			return
		}
		if c.dispatch(env) {
			terminal = true
			return
		}
	}
}

// dispatch routes one inbound frame. Reports whether the frame was terminal.
func (c *Call) dispatch(env envelope) bool {
	switch env.Type {
	case typeConnected:
		c.mu.Lock()
		c.connectedAt = time.Now()
		c.mu.Unlock()
		c.events <- core.CallConnected{}
	case typeDisconnected:
		c.events <- core.CallDisconnected{}
		return true
	case typeFailed:
		c.events <- core.CallFailed{Reason: env.Reason}
		return true
	case typeLocalStreamAdded:
		c.events <- core.LocalStreamAdded{StreamID: env.Stream}
	case typeLocalStreamRemoved:
		c.events <- core.LocalStreamRemoved{}
	case typeEndpointAdded:
		c.onEndpointAdded(env)
	case typeEndpointRemoved:
		c.onEndpointRemoved(env)
	case typeStreamAdded:
		c.forwardEndpointEvent(env, core.RemoteStreamAdded{StreamID: env.Stream})
	case typeStreamRemoved:
		c.forwardEndpointEvent(env, core.RemoteStreamRemoved{})
	case typeVoiceActivity:
		if env.Active {
			c.forwardEndpointEvent(env, core.VoiceActivityStarted{})
		} else {
			c.forwardEndpointEvent(env, core.VoiceActivityStopped{})
		}
	case typeMessage:
		c.events <- core.MessageReceived{Text: env.Text}
	case typeAnswer:
		if err := c.media.applyAnswer(env.SDP); err != nil {
			log.Error().Err(err).Str("module", "adapters.engine").Msg("apply answer")
		}
	case typeCandidate:
		if err := c.media.addCandidate(env); err != nil {
			log.Error().Err(err).Str("module", "adapters.engine").Msg("add candidate")
		}
	default:
		log.Warn().Str("module", "adapters.engine").Str("type", env.Type).Msg("unknown signal")
	}
	return false
}

func (c *Call) onEndpointAdded(env envelope) {
	id := domain.ParticipantID(env.Endpoint)
	if id == "" {
		return
	}
	c.mu.Lock()
	if _, ok := c.endpoints[id]; ok {
		c.mu.Unlock()
		return
	}
	ep := newRemoteEndpoint(c, id, env.Name)
	c.endpoints[id] = ep
	c.order = append(c.order, id)
	c.mu.Unlock()
	c.events <- core.EndpointAdded{Endpoint: ep}
}

func (c *Call) onEndpointRemoved(env envelope) {
	id := domain.ParticipantID(env.Endpoint)
	c.mu.Lock()
	ep, ok := c.endpoints[id]
	if ok {
		delete(c.endpoints, id)
		for i, pid := range c.order {
			if pid == id {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	ep.emit(core.EndpointRemoved{})
	ep.close()
}

func (c *Call) forwardEndpointEvent(env envelope, ev core.EndpointEvent) {
	c.mu.RLock()
	ep, ok := c.endpoints[domain.ParticipantID(env.Endpoint)]
	c.mu.RUnlock()
	if !ok {
		log.Warn().Str("module", "adapters.engine").Str("endpoint", env.Endpoint).Str("type", env.Type).Msg("event for unknown endpoint")
		return
	}
	ep.emit(ev)
}
