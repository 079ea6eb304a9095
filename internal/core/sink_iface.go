package core

import "github.com/dkeye/Conference/internal/domain"

// EventSink is the outward capability the controller publishes state changes
// through. Consumers (a presentation layer) only ever read these snapshots;
// they never mutate session state back.
type EventSink interface {
	CallStateChanged(state domain.CallState)
	ParticipantAdded(p domain.Participant)
	ParticipantRemoved(id domain.ParticipantID)
	ParticipantUpdated(p domain.Participant)
	// Error carries a human-readable reason, e.g. a call failure cause.
	Error(reason string)
}
