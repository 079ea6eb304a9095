package core

// CallEvent is the closed set of call-scoped engine events. One variant per
// lifecycle/roster/message notification; the controller matches exhaustively.
type CallEvent interface{ callEvent() }

type (
	// CallConnected — the engine established the conference call.
	CallConnected struct{}
	// CallDisconnected — the engine ended the call normally.
	CallDisconnected struct{}
	// CallFailed — the call itself failed; Reason is human-readable.
	CallFailed struct{ Reason string }
	// LocalStreamAdded — the local video stream was published.
	LocalStreamAdded struct{ StreamID string }
	// LocalStreamRemoved — the local video stream was withdrawn.
	LocalStreamRemoved struct{}
	// EndpointAdded — a remote participant joined the conference.
	EndpointAdded struct{ Endpoint Endpoint }
	// MessageReceived — text arrived on the call's signaling channel.
	MessageReceived struct{ Text string }
)

func (CallConnected) callEvent()      {}
func (CallDisconnected) callEvent()   {}
func (CallFailed) callEvent()         {}
func (LocalStreamAdded) callEvent()   {}
func (LocalStreamRemoved) callEvent() {}
func (EndpointAdded) callEvent()      {}
func (MessageReceived) callEvent()    {}

// EndpointEvent is the closed set of per-endpoint engine events.
type EndpointEvent interface{ endpointEvent() }

type (
	// RemoteStreamAdded — the endpoint published a video stream.
	RemoteStreamAdded struct{ StreamID string }
	// RemoteStreamRemoved — the endpoint withdrew its video stream.
	RemoteStreamRemoved struct{}
	// VoiceActivityStarted — the endpoint started speaking.
	VoiceActivityStarted struct{}
	// VoiceActivityStopped — the endpoint stopped speaking.
	VoiceActivityStopped struct{}
	// EndpointRemoved — the endpoint left the conference.
	EndpointRemoved struct{}
)

func (RemoteStreamAdded) endpointEvent()    {}
func (RemoteStreamRemoved) endpointEvent()  {}
func (VoiceActivityStarted) endpointEvent() {}
func (VoiceActivityStopped) endpointEvent() {}
func (EndpointRemoved) endpointEvent()      {}
