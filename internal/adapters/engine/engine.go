package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrCallClosed   = errors.New("call closed")
)

// Engine dials the conferencing engine's signaling endpoint and hands out
// call handles. One Engine can serve any number of sequential calls; each
// CallConference opens its own socket.
type Engine struct {
	url         string
	dialTimeout time.Duration
	dialer      *websocket.Dialer
	rtcConfig   webrtc.Configuration
}

type Config struct {
	URL         string
	DialTimeout time.Duration
}

func New(cfg Config) *Engine {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	return &Engine{
		url:         cfg.URL,
		dialTimeout: cfg.DialTimeout,
		dialer:      websocket.DefaultDialer,
		rtcConfig:   defaultRTCConfig(),
	}
}

func defaultRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

// CallConference dials the engine, requests a conference join and blocks until
// the engine accepts or rejects it. On success the returned handle's event
// channels are live and the media connection is negotiating.
func (e *Engine) CallConference(ctx context.Context, conference domain.ConferenceName, opts core.CallOptions) (core.CallHandle, error) {
	dialCtx, cancel := context.WithTimeout(ctx, e.dialTimeout)
	defer cancel()

	ws, _, err := e.dialer.DialContext(dialCtx, e.url, nil)
	if err != nil {
		return nil, &core.EngineError{Op: "dial", Err: err}
	}

	call := newCall(ws, e.rtcConfig)
	go call.writePump()

	err = call.trySend(envelope{
		Type:         typeCall,
		Conference:   string(conference),
		SendVideo:    opts.SendVideo,
		ReceiveVideo: opts.ReceiveVideo,
		Simulcast:    opts.Simulcast,
	})
	if err != nil {
		call.shutdown()
		return nil, &core.EngineError{Op: "call", Err: err}
	}

	callID, err := call.awaitAccept(dialCtx)
	if err != nil {
		call.shutdown()
		return nil, &core.EngineError{Op: "call", Err: err}
	}
	call.id = domain.ParticipantID(callID)

	if err := call.startMedia(ctx, opts.SendVideo); err != nil {
		call.shutdown()
		return nil, &core.EngineError{Op: "media", Err: err}
	}

	go call.readPump()
	log.Info().Str("module", "adapters.engine").Str("conference", string(conference)).Str("call_id", callID).Msg("call accepted")
	return call, nil
}

// awaitAccept reads signaling frames until the engine answers the call
// request. Runs before readPump starts, so it owns the socket reads.
func (c *Call) awaitAccept(ctx context.Context) (string, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return "", err
	}
	defer c.conn.SetReadDeadline(time.Time{}) //nolint:errcheck

	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return "", fmt.Errorf("await accept: %w", err)
		}
		switch env.Type {
		case typeCallAccepted:
			if env.CallID == "" {
				return "", errors.New("call accepted without call id")
			}
			return env.CallID, nil
		case typeCallRejected:
			return "", fmt.Errorf("call rejected: %s", env.Reason)
		default:
			// The engine must not emit session events before accepting.
			log.Warn().Str("module", "adapters.engine").Str("type", env.Type).Msg("frame before accept dropped")
		}
	}
}
