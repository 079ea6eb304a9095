package app

import (
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
)

// session is the single mutable record behind one controller: call state,
// roster and the live engine handle. It exists for the controller's whole
// lifetime; only the handle and roster come and go with each call.
//
// All access is confined to the controller's mutex.
type session struct {
	state  domain.CallState
	roster *domain.Roster
	handle core.CallHandle
}

func newSession() *session {
	return &session{state: domain.CallIdle, roster: domain.NewRoster()}
}

// live reports whether h is still the session's current handle. Late results
// from a superseded or released handle must be dropped.
func (s *session) live(h core.CallHandle) bool {
	return s.handle != nil && s.handle == h
}

// release clears the handle and roster and records the terminal state. It is
// the single cleanup path shared by hang-up, disconnect and failure.
func (s *session) release(final domain.CallState) {
	s.handle = nil
	s.roster.Clear()
	s.state = final
}
