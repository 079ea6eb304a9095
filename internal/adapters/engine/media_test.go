package engine

import (
	"context"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"
)

func TestOfferAbortsOnCancelledContext(t *testing.T) {
	m, err := newMediaConn(webrtc.Configuration{}, false)
	require.NoError(t, err)
	defer m.close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = m.createAndSetOffer(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
