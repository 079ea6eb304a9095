package core

import (
	"context"
	"time"

	"github.com/dkeye/Conference/internal/domain"
)

// CallOptions mirror the engine-side call settings for a conference join.
type CallOptions struct {
	SendVideo    bool
	ReceiveVideo bool
	Simulcast    bool
}

// MediaStats are transport-level receive counters for a call.
type MediaStats struct {
	Packets uint64 `json:"packets"`
	Bytes   uint64 `json:"bytes"`
}

// Engine is the conferencing engine capability consumed by the controller.
// Owned by the adapter; the adapter must release every handle it hands out.
type Engine interface {
	// CallConference creates/joins a conference call. The returned handle is
	// live until Hangup or a terminal call event.
	CallConference(ctx context.Context, conference domain.ConferenceName, opts CallOptions) (CallHandle, error)
}

// CallHandle is the engine's call object for one joined conference.
// Events() is closed by the adapter when the call reaches a terminal state or
// Hangup is called; that close is the unsubscribe.
type CallHandle interface {
	// ID is the call's own id; it doubles as the local participant id.
	ID() domain.ParticipantID
	Hangup() error
	// SendAudio toggles local audio send. Fire-and-forget on the engine side.
	SendAudio(muted bool)
	SendVideo(ctx context.Context, enable bool) error
	// SendMessage publishes text on the call's signaling channel.
	SendMessage(text string) error
	Duration() time.Duration
	Stats() MediaStats
	Endpoints() []Endpoint
	Events() <-chan CallEvent
}

// Endpoint is the engine-side handle for one remote participant's media
// connection. Its Events() channel is closed when the endpoint is removed or
// the call ends.
type Endpoint interface {
	ID() domain.ParticipantID
	DisplayName() string
	StartReceiving(ctx context.Context, streamID string) error
	StopReceiving(ctx context.Context, streamID string) error
	Events() <-chan EndpointEvent
}
