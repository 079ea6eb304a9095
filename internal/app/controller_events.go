package app

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
)

// callLoop consumes call-scoped events until the adapter closes the channel.
// The close is the unsubscribe; no handler runs after it.
func (c *Controller) callLoop(h core.CallHandle) {
	for ev := range h.Events() {
		switch e := ev.(type) {
		case core.CallConnected:
			c.onConnected(h)
		case core.CallDisconnected:
			c.disconnect(h)
		case core.CallFailed:
			c.onFailed(h, e.Reason)
		case core.LocalStreamAdded:
			c.setParticipantStream(h, h.ID(), e.StreamID)
		case core.LocalStreamRemoved:
			c.setParticipantStream(h, h.ID(), "")
		case core.EndpointAdded:
			c.onEndpointAdded(h, e.Endpoint)
		case core.MessageReceived:
			c.onMessage(h, e.Text)
		}
	}
}

// endpointLoop consumes one remote participant's events. It is started when
// the endpoint joins and exits when the endpoint is removed or the adapter
// closes the channel at call teardown.
func (c *Controller) endpointLoop(h core.CallHandle, ep core.Endpoint) {
	id := ep.ID()
	for ev := range ep.Events() {
		switch e := ev.(type) {
		case core.RemoteStreamAdded:
			c.setParticipantStream(h, id, e.StreamID)
		case core.RemoteStreamRemoved:
			c.setParticipantStream(h, id, "")
		case core.VoiceActivityStarted:
			c.setSpeaking(h, id, true)
		case core.VoiceActivityStopped:
			c.setSpeaking(h, id, false)
		case core.EndpointRemoved:
			c.onEndpointRemoved(h, id)
			return
		}
	}
}

func (c *Controller) onConnected(h core.CallHandle) {
	c.mu.Lock()
	if !c.sess.live(h) {
		c.mu.Unlock()
		return
	}
	c.sess.state = domain.CallConnected
	c.mu.Unlock()
	c.sink.CallStateChanged(domain.CallConnected)
	log.Info().Str("module", "app.controller").Str("call_id", string(h.ID())).Msg("connected")
}

func (c *Controller) onFailed(h core.CallHandle, reason string) {
	if !c.releaseTo(h, domain.CallFailed) {
		return
	}
	c.sink.Error(reason)
	log.Error().Str("module", "app.controller").Str("reason", reason).Msg("call failed")
}

func (c *Controller) onEndpointAdded(h core.CallHandle, ep core.Endpoint) {
	if ep.ID() == h.ID() {
		return
	}
	p, err := domain.NewParticipant(ep.ID(), ep.DisplayName())
	if err != nil {
		log.Warn().Err(err).Str("module", "app.controller").Str("endpoint", string(ep.ID())).Msg("endpoint meta rejected")
		if p, err = domain.NewParticipant(ep.ID(), ""); err != nil {
			return
		}
	}

	c.mu.Lock()
	if !c.sess.live(h) {
		c.mu.Unlock()
		return
	}
	added := c.sess.roster.Add(p)
	c.mu.Unlock()
	if !added {
		return
	}
	c.sink.ParticipantAdded(*p)
	log.Info().Str("module", "app.controller").Str("participant", string(p.ID)).Msg("participant joined")
	go c.endpointLoop(h, ep)
}

func (c *Controller) onEndpointRemoved(h core.CallHandle, id domain.ParticipantID) {
	c.mu.Lock()
	removed := c.sess.live(h) && c.sess.roster.Remove(id)
	c.mu.Unlock()
	if removed {
		c.sink.ParticipantRemoved(id)
		log.Info().Str("module", "app.controller").Str("participant", string(id)).Msg("participant left")
	}
}

// onMessage decodes a best-effort mute signal. Malformed payloads are dropped
// without touching any state.
func (c *Controller) onMessage(h core.CallHandle, text string) {
	m, err := core.DecodeMuteSignal(text)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.controller").Str("text", text).Msg("unhandled signaling message")
		return
	}
	c.mu.Lock()
	var updated domain.Participant
	ok := c.sess.live(h) && c.sess.roster.Update(m.ID, func(p *domain.Participant) {
		p.IsMuted = m.Muted
		updated = *p
	})
	c.mu.Unlock()
	if ok {
		c.sink.ParticipantUpdated(updated)
	}
}

func (c *Controller) setParticipantStream(h core.CallHandle, id domain.ParticipantID, streamID string) {
	c.mu.Lock()
	var updated domain.Participant
	ok := c.sess.live(h) && c.sess.roster.Update(id, func(p *domain.Participant) {
		p.StreamID = streamID
		updated = *p
	})
	c.mu.Unlock()
	if ok {
		c.sink.ParticipantUpdated(updated)
	}
}

func (c *Controller) setSpeaking(h core.CallHandle, id domain.ParticipantID, speaking bool) {
	c.mu.Lock()
	var updated domain.Participant
	ok := c.sess.live(h) && c.sess.roster.Update(id, func(p *domain.Participant) {
		p.IsSpeaking = speaking
		updated = *p
	})
	c.mu.Unlock()
	if ok {
		c.sink.ParticipantUpdated(updated)
	}
}
