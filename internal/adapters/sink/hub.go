// Package sink carries controller state snapshots out to whatever
// presentation layer is attached. The controller only ever writes here; it
// never reads UI state back.
package sink

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Conference/internal/domain"
)

type Kind string

const (
	KindCallState          Kind = "call_state"
	KindParticipantAdded   Kind = "participant_added"
	KindParticipantRemoved Kind = "participant_removed"
	KindParticipantUpdated Kind = "participant_updated"
	KindError              Kind = "error"
)

// Event is one published state snapshot.
type Event struct {
	Kind          Kind                 `json:"kind"`
	State         string               `json:"state,omitempty"`
	Participant   *domain.Participant  `json:"participant,omitempty"`
	ParticipantID domain.ParticipantID `json:"participant_id,omitempty"`
	Reason        string               `json:"reason,omitempty"`
}

// Hub implements core.EventSink and fans every snapshot out to all
// subscribers. A slow subscriber is dropped-to, never blocked-on: the
// controller must not stall on a sluggish UI connection.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe registers a snapshot receiver. The returned cancel func must be
// called to release it; the channel is closed on cancel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			log.Warn().Str("module", "adapters.sink").Int("subscriber", id).Str("kind", string(ev.Kind)).Msg("snapshot dropped, slow subscriber")
		}
	}
}

func (h *Hub) CallStateChanged(state domain.CallState) {
	h.publish(Event{Kind: KindCallState, State: state.String()})
}

func (h *Hub) ParticipantAdded(p domain.Participant) {
	h.publish(Event{Kind: KindParticipantAdded, Participant: &p})
}

func (h *Hub) ParticipantRemoved(id domain.ParticipantID) {
	h.publish(Event{Kind: KindParticipantRemoved, ParticipantID: id})
}

func (h *Hub) ParticipantUpdated(p domain.Participant) {
	h.publish(Event{Kind: KindParticipantUpdated, Participant: &p})
}

func (h *Hub) Error(reason string) {
	h.publish(Event{Kind: KindError, Reason: reason})
}
