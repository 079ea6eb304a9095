package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTileCapPolicyBelowCapIsNoAction(t *testing.T) {
	p := TileCapPolicy{}
	for count := 0; count < visibleStreamCap; count++ {
		for idx := 0; idx < count; idx++ {
			require.Equal(t, StreamNoAction, p.Decide(count, idx, false))
			require.Equal(t, StreamNoAction, p.Decide(count, idx, true))
		}
	}
}

func TestTileCapPolicyAtAndAboveCap(t *testing.T) {
	p := TileCapPolicy{}

	tests := []struct {
		name    string
		count   int
		idx     int
		enabled bool
		want    StreamAction
	}{
		{"first tile gets enabled", 6, 0, false, StreamEnable},
		{"first tile already on", 6, 0, true, StreamNoAction},
		{"last tile inside cap", 6, 5, false, StreamEnable},
		{"tile past cap stays off", 7, 6, false, StreamNoAction},
		{"tile past cap gets cut", 7, 6, true, StreamDisable},
		{"deep overflow gets cut", 20, 19, true, StreamDisable},
		{"deep overflow stays off", 20, 19, false, StreamNoAction},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, p.Decide(tc.count, tc.idx, tc.enabled))
		})
	}
}

// Feeding the policy its own outcome must converge: a second pass over the
// same layout produces zero commands.
func TestTileCapPolicyIdempotent(t *testing.T) {
	p := TileCapPolicy{}
	const count = 9

	enabled := make([]bool, count)
	for idx := range enabled {
		switch p.Decide(count, idx, enabled[idx]) {
		case StreamEnable:
			enabled[idx] = true
		case StreamDisable:
			enabled[idx] = false
		}
	}
	for idx := range enabled {
		require.Equal(t, StreamNoAction, p.Decide(count, idx, enabled[idx]),
			"index %d", idx)
	}
	for idx := 0; idx <= lastEnabledIndex; idx++ {
		require.True(t, enabled[idx])
	}
	for idx := lastEnabledIndex + 1; idx < count; idx++ {
		require.False(t, enabled[idx])
	}
}
