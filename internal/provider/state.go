package provider

// connState is the provider's internal lifecycle state, a superset of
// the externally visible events.ProviderStatus.
type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateDiscovered
	stateReady
	stateDegraded
)

func (s connState) String() string {
	switch s {
	case stateDisconnected:
		return "Disconnected"
	case stateConnecting:
		return "Connecting"
	case stateDiscovered:
		return "Discovered"
	case stateReady:
		return "Ready"
	case stateDegraded:
		return "Degraded"
	default:
		return "Unknown"
	}
}
