package engine

import (
	"context"
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Conference/internal/core"
)

// mediaConn wraps the Pion PeerConnection behind a call. Negotiation runs
// over the call's signaling socket: we offer, the engine answers, candidates
// trickle in from the engine side. Received tracks are drained so the
// transport keeps flowing; decoding is not this client's job.
type mediaConn struct {
	pc    *webrtc.PeerConnection
	onICE func(webrtc.ICECandidateInit)

	packets uint64
	bytes   uint64
}

func newMediaConn(cfg webrtc.Configuration, sendVideo bool) (*mediaConn, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	m := &mediaConn{pc: pc}

	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionSendrecv,
	}); err != nil {
		_ = pc.Close()
		return nil, err
	}
	videoDir := webrtc.RTPTransceiverDirectionRecvonly
	if sendVideo {
		videoDir = webrtc.RTPTransceiverDirectionSendrecv
	}
	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
		Direction: videoDir,
	}); err != nil {
		_ = pc.Close()
		return nil, err
	}

	pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Info().Str("module", "adapters.engine.media").Str("ice_state", s.String()).Msg("ICE state")
	})
	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand != nil && m.onICE != nil {
			m.onICE(cand.ToJSON())
		}
	})
	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		log.Info().
			Str("module", "adapters.engine.media").
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("stream_id", track.StreamID()).
			Msg("OnTrack received")
		go m.drain(track)
	})

	return m, nil
}

func (m *mediaConn) onICECandidate(fn func(webrtc.ICECandidateInit)) {
	m.onICE = fn
}

func (m *mediaConn) createAndSetOffer(ctx context.Context) (*webrtc.SessionDescription, error) {
	offer, err := m.pc.CreateOffer(nil)
	if err != nil {
		return nil, err
	}
	gatherComplete := webrtc.GatheringCompletePromise(m.pc)
	if err := m.pc.SetLocalDescription(offer); err != nil {
		return nil, err
	}
	select {
	case <-gatherComplete:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return m.pc.LocalDescription(), nil
}

func (m *mediaConn) applyAnswer(sdp string) error {
	return m.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  sdp,
	})
}

func (m *mediaConn) addCandidate(env envelope) error {
	cand := webrtc.ICECandidateInit{Candidate: env.Candidate}
	if env.SDPMid != "" {
		mid := env.SDPMid
		cand.SDPMid = &mid
	}
	idx := env.SDPMLineIndex
	cand.SDPMLineIndex = &idx
	return m.pc.AddICECandidate(cand)
}

// drain reads RTP off a remote track until it ends.
func (m *mediaConn) drain(track *webrtc.TrackRemote) {
	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			return
		}
		m.account(pkt)
	}
}

func (m *mediaConn) account(p *rtp.Packet) {
	atomic.AddUint64(&m.packets, 1)
	atomic.AddUint64(&m.bytes, uint64(p.MarshalSize()))
}

// Stats returns received packet/byte counters.
func (m *mediaConn) Stats() core.MediaStats {
	return core.MediaStats{
		Packets: atomic.LoadUint64(&m.packets),
		Bytes:   atomic.LoadUint64(&m.bytes),
	}
}

func (m *mediaConn) close() {
	if err := m.pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "adapters.engine.media").Msg("close error")
	}
}
