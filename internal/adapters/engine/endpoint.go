package engine

import (
	"context"
	"sync"

	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
)

// remoteEndpoint is the engine-side handle for one remote participant. Its
// event channel is fed only by the call's readPump and closed exactly once,
// either on endpoint removal or at call teardown.
type remoteEndpoint struct {
	call *Call
	id   domain.ParticipantID
	name string

	events    chan core.EndpointEvent
	closeOnce sync.Once
	done      chan struct{}
}

func newRemoteEndpoint(call *Call, id domain.ParticipantID, name string) *remoteEndpoint {
	return &remoteEndpoint{
		call:   call,
		id:     id,
		name:   name,
		events: make(chan core.EndpointEvent, 16),
		done:   make(chan struct{}),
	}
}

func (e *remoteEndpoint) ID() domain.ParticipantID { return e.id }

func (e *remoteEndpoint) DisplayName() string { return e.name }

func (e *remoteEndpoint) Events() <-chan core.EndpointEvent { return e.events }

// StartReceiving subscribes to the endpoint's video stream.
func (e *remoteEndpoint) StartReceiving(ctx context.Context, streamID string) error {
	err := e.call.trySend(envelope{Type: typeSubscribe, Endpoint: string(e.id), Stream: streamID})
	if err != nil {
		return &core.EngineError{Op: "start receiving", Err: err}
	}
	return nil
}

// StopReceiving suppresses the endpoint's video stream.
func (e *remoteEndpoint) StopReceiving(ctx context.Context, streamID string) error {
	err := e.call.trySend(envelope{Type: typeUnsubscribe, Endpoint: string(e.id), Stream: streamID})
	if err != nil {
		return &core.EngineError{Op: "stop receiving", Err: err}
	}
	return nil
}

// emit delivers ev unless the endpoint is already closed.
func (e *remoteEndpoint) emit(ev core.EndpointEvent) {
	select {
	case <-e.done:
	default:
		e.events <- ev
	}
}

func (e *remoteEndpoint) close() {
	e.closeOnce.Do(func() {
		close(e.done)
		close(e.events)
	})
}
