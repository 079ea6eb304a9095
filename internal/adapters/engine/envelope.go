// Package engine implements the conferencing-engine capability over a
// WebSocket signaling connection plus a Pion media connection. It owns every
// event channel it hands out and closes them deterministically at teardown.
package engine

// envelope is the wire frame for the engine's signaling socket. Every message
// carries a type tag; fields are populated per type.
type envelope struct {
	Type string `json:"type"`

	// call / call_accepted / call_rejected
	Conference   string `json:"conference,omitempty"`
	SendVideo    bool   `json:"send_video,omitempty"`
	ReceiveVideo bool   `json:"receive_video,omitempty"`
	Simulcast    bool   `json:"simulcast,omitempty"`
	CallID       string `json:"call_id,omitempty"`

	// endpoint_* / stream_* / voice_activity / subscribe / unsubscribe
	Endpoint string `json:"endpoint,omitempty"`
	Name     string `json:"name,omitempty"`
	Stream   string `json:"stream,omitempty"`
	Active   bool   `json:"active,omitempty"`

	// message
	Text string `json:"text,omitempty"`

	// send_audio / send_video
	Muted  bool `json:"muted,omitempty"`
	Enable bool `json:"enable,omitempty"`

	// offer / answer / candidate
	SDP           string `json:"sdp,omitempty"`
	Candidate     string `json:"candidate,omitempty"`
	SDPMid        string `json:"sdpMid,omitempty"`
	SDPMLineIndex uint16 `json:"sdpMLineIndex,omitempty"`

	// failed / call_rejected
	Reason string `json:"reason,omitempty"`
}

// Signaling message types, client to engine.
const (
	typeCall        = "call"
	typeHangup      = "hangup"
	typeSendAudio   = "send_audio"
	typeSendVideo   = "send_video"
	typeMessage     = "message"
	typeSubscribe   = "subscribe"
	typeUnsubscribe = "unsubscribe"
	typeOffer       = "offer"
	typeCandidate   = "candidate"
)

// Signaling message types, engine to client.
const (
	typeCallAccepted       = "call_accepted"
	typeCallRejected       = "call_rejected"
	typeConnected          = "connected"
	typeDisconnected       = "disconnected"
	typeFailed             = "failed"
	typeLocalStreamAdded   = "local_stream_added"
	typeLocalStreamRemoved = "local_stream_removed"
	typeEndpointAdded      = "endpoint_added"
	typeEndpointRemoved    = "endpoint_removed"
	typeStreamAdded        = "stream_added"
	typeStreamRemoved      = "stream_removed"
	typeVoiceActivity      = "voice_activity"
	typeAnswer             = "answer"
)
