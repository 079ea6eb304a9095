package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
)

func testCall() *Call {
	c := newCall(nil, webrtc.Configuration{})
	c.id = "local"
	return c
}

func TestDispatchConnected(t *testing.T) {
	c := testCall()
	require.Zero(t, c.Duration())

	terminal := c.dispatch(envelope{Type: typeConnected})
	require.False(t, terminal)
	require.Equal(t, core.CallConnected{}, <-c.events)
	require.Greater(t, c.Duration(), time.Duration(0))
}

func TestDispatchTerminalFrames(t *testing.T) {
	c := testCall()
	require.True(t, c.dispatch(envelope{Type: typeDisconnected}))
	require.Equal(t, core.CallDisconnected{}, <-c.events)

	c = testCall()
	require.True(t, c.dispatch(envelope{Type: typeFailed, Reason: "NETWORK_ERROR"}))
	require.Equal(t, core.CallFailed{Reason: "NETWORK_ERROR"}, <-c.events)
}

func TestDispatchLocalStream(t *testing.T) {
	c := testCall()
	c.dispatch(envelope{Type: typeLocalStreamAdded, Stream: "s1"})
	require.Equal(t, core.LocalStreamAdded{StreamID: "s1"}, <-c.events)

	c.dispatch(envelope{Type: typeLocalStreamRemoved})
	require.Equal(t, core.LocalStreamRemoved{}, <-c.events)
}

func TestDispatchEndpointJoinOrder(t *testing.T) {
	c := testCall()
	for _, id := range []string{"a", "b", "c"} {
		c.dispatch(envelope{Type: typeEndpointAdded, Endpoint: id, Name: "user " + id})
	}
	// A duplicate add changes nothing.
	c.dispatch(envelope{Type: typeEndpointAdded, Endpoint: "b"})

	eps := c.Endpoints()
	require.Len(t, eps, 3)
	require.Equal(t, domain.ParticipantID("a"), eps[0].ID())
	require.Equal(t, domain.ParticipantID("b"), eps[1].ID())
	require.Equal(t, domain.ParticipantID("c"), eps[2].ID())
	require.Equal(t, "user a", eps[0].DisplayName())

	for range 3 {
		ev := <-c.events
		require.IsType(t, core.EndpointAdded{}, ev)
	}
	require.Empty(t, c.events)

	c.dispatch(envelope{Type: typeEndpointRemoved, Endpoint: "b"})
	eps = c.Endpoints()
	require.Len(t, eps, 2)
	require.Equal(t, domain.ParticipantID("c"), eps[1].ID())
}

func TestDispatchForwardsEndpointEvents(t *testing.T) {
	c := testCall()
	c.dispatch(envelope{Type: typeEndpointAdded, Endpoint: "a"})
	ev := (<-c.events).(core.EndpointAdded)
	ep := ev.Endpoint

	c.dispatch(envelope{Type: typeStreamAdded, Endpoint: "a", Stream: "s1"})
	require.Equal(t, core.RemoteStreamAdded{StreamID: "s1"}, <-ep.Events())

	c.dispatch(envelope{Type: typeVoiceActivity, Endpoint: "a", Active: true})
	require.Equal(t, core.VoiceActivityStarted{}, <-ep.Events())

	c.dispatch(envelope{Type: typeVoiceActivity, Endpoint: "a", Active: false})
	require.Equal(t, core.VoiceActivityStopped{}, <-ep.Events())

	c.dispatch(envelope{Type: typeStreamRemoved, Endpoint: "a"})
	require.Equal(t, core.RemoteStreamRemoved{}, <-ep.Events())

	// Removal emits the final event and closes the channel.
	c.dispatch(envelope{Type: typeEndpointRemoved, Endpoint: "a"})
	require.Equal(t, core.EndpointRemoved{}, <-ep.Events())
	_, open := <-ep.Events()
	require.False(t, open)

	// Events for unknown endpoints are dropped, not panicked on.
	c.dispatch(envelope{Type: typeStreamAdded, Endpoint: "ghost", Stream: "s2"})
	c.dispatch(envelope{Type: typeEndpointRemoved, Endpoint: "ghost"})
}

func TestDispatchMessage(t *testing.T) {
	c := testCall()
	c.dispatch(envelope{Type: typeMessage, Text: `{"id":"a","muted":true}`})
	require.Equal(t, core.MessageReceived{Text: `{"id":"a","muted":true}`}, <-c.events)
}

func TestTrySendBackpressure(t *testing.T) {
	c := testCall()
	env := envelope{Type: typeMessage, Text: "x"}
	for i := 0; i < cap(c.send); i++ {
		require.NoError(t, c.trySend(env))
	}
	require.ErrorIs(t, c.trySend(env), ErrBackpressure)

	b := <-c.send
	var got envelope
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, typeMessage, got.Type)
}

func TestTrySendAfterClose(t *testing.T) {
	c := testCall()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	require.ErrorIs(t, c.trySend(envelope{Type: typeHangup}), ErrCallClosed)
}

func TestSendMessageRateLimited(t *testing.T) {
	c := testCall()
	c.limiter = newMsgLimiter(3, time.Minute)

	for range 3 {
		require.NoError(t, c.SendMessage("hi"))
	}
	err := c.SendMessage("hi")
	require.ErrorIs(t, err, ErrRateLimited)

	var engErr *core.EngineError
	require.ErrorAs(t, err, &engErr)
	require.Equal(t, "message", engErr.Op)
}

func TestMsgLimiterWindowSlides(t *testing.T) {
	rl := newMsgLimiter(2, 30*time.Millisecond)
	require.True(t, rl.Allow("a"))
	require.True(t, rl.Allow("a"))
	require.False(t, rl.Allow("a"))
	// Other senders have their own window.
	require.True(t, rl.Allow("b"))

	time.Sleep(40 * time.Millisecond)
	require.True(t, rl.Allow("a"))
}
