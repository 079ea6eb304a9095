package sink

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/Conference/internal/domain"
)

func TestHubFansOutToAllSubscribers(t *testing.T) {
	h := NewHub()
	ch1, cancel1 := h.Subscribe()
	ch2, cancel2 := h.Subscribe()
	defer cancel1()
	defer cancel2()

	h.CallStateChanged(domain.CallConnected)

	for _, ch := range []<-chan Event{ch1, ch2} {
		ev := <-ch
		require.Equal(t, KindCallState, ev.Kind)
		require.Equal(t, domain.CallConnected.String(), ev.State)
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	cancel()
	cancel() // repeated cancel is a no-op

	_, open := <-ch
	require.False(t, open)

	// Publishing after cancel must not panic on the closed channel.
	h.Error("late")
}

func TestHubDropsOnFullSubscriber(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	p := domain.Participant{ID: "a"}
	for i := 0; i < cap(ch)+10; i++ {
		h.ParticipantUpdated(p)
	}
	// The hub never blocked; the buffer holds the first cap(ch) snapshots.
	require.Len(t, ch, cap(ch))
}

func TestHubEventShapes(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	p := domain.Participant{ID: "a", DisplayName: "alice"}
	h.ParticipantAdded(p)
	h.ParticipantRemoved("a")
	h.Error("boom")

	ev := <-ch
	require.Equal(t, KindParticipantAdded, ev.Kind)
	require.Equal(t, &p, ev.Participant)

	ev = <-ch
	require.Equal(t, KindParticipantRemoved, ev.Kind)
	require.Equal(t, domain.ParticipantID("a"), ev.ParticipantID)

	ev = <-ch
	require.Equal(t, KindError, ev.Kind)
	require.Equal(t, "boom", ev.Reason)
}
