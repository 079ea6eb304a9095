package domain

type (
	ConferenceName string
	CallState      int
)

const (
	CallIdle CallState = iota
	CallConnecting
	CallConnected
	CallDisconnected
	CallFailed
)

func (s CallState) String() string {
	switch s {
	case CallIdle:
		return "Idle"
	case CallConnecting:
		return "Connecting"
	case CallConnected:
		return "Connected"
	case CallDisconnected:
		return "Disconnected"
	case CallFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the state ends the session lifecycle.
func (s CallState) Terminal() bool {
	return s == CallDisconnected || s == CallFailed
}
