// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxDisplayNameLen = 36

var (
	ErrParticipantIDEmpty = errors.New("participant id empty")
	ErrDisplayNameTooLong = errors.New("display name too long")
)

type ParticipantID string

// Participant is one member of the conference roster.
// The local user's ID equals the call's own id.
type Participant struct {
	ID               ParticipantID `json:"id"`
	DisplayName      string        `json:"display_name,omitempty"`
	StreamID         string        `json:"stream_id,omitempty"`
	HasEnabledStream bool          `json:"has_enabled_stream"`
	IsMuted          bool          `json:"is_muted"`
	IsSpeaking       bool          `json:"is_speaking"`
}

// NewParticipant is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewParticipant(id ParticipantID, displayName string) (*Participant, error) {
	if id == "" {
		return nil, ErrParticipantIDEmpty
	}
	if len(displayName) > MaxDisplayNameLen {
		return nil, ErrDisplayNameTooLong
	}
	return &Participant{ID: id, DisplayName: displayName}, nil
}

func (p *Participant) SetDisplayName(name string) error {
	if len(name) > MaxDisplayNameLen {
		return ErrDisplayNameTooLong
	}
	p.DisplayName = name
	return nil
}
