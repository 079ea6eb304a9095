package core

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Conference/internal/domain"
)

// ErrBadMuteSignal marks a signaling payload that is not a mute signal.
// It is recovered locally and logged, never surfaced to callers.
var ErrBadMuteSignal = errors.New("bad mute signal")

// MuteSignal is the out-of-band mute state propagated over the call's text
// message channel.
type MuteSignal struct {
	ID    domain.ParticipantID `json:"id"`
	Muted bool                 `json:"muted"`
}

func (m MuteSignal) Encode() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeMuteSignal parses text as a mute signal. Anything malformed or missing
// a participant id is rejected with ErrBadMuteSignal.
func DecodeMuteSignal(text string) (MuteSignal, error) {
	var m MuteSignal
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		return MuteSignal{}, fmt.Errorf("%w: %v", ErrBadMuteSignal, err)
	}
	if m.ID == "" {
		return MuteSignal{}, ErrBadMuteSignal
	}
	return m, nil
}
