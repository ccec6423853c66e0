package relay

// State is a relay state machine state.
type State int

const (
	StateConnecting   State = iota // Spawning the listener subprocess
	StateInteractive                // Line mode with command parsing
	StateUpgradingPty               // Raw forward over the listener channel
	StateUpgradingRaw               // Raw forward over the relay subprocess
	StateClosed                     // Terminal state
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateInteractive:
		return "interactive"
	case StateUpgradingPty:
		return "upgrading_pty"
	case StateUpgradingRaw:
		return "upgrading_raw"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EndReason records why a session reached StateClosed.
type EndReason int

const (
	EndReasonUnknown       EndReason = iota
	EndReasonQuit                    // Operator issued :quit
	EndReasonInputClosed             // Local input reached EOF
	EndReasonChannelClosed           // The remote side went away
	EndReasonError                   // A fatal error ended the session
)

// String returns a human-readable description of the end reason.
func (r EndReason) String() string {
	switch r {
	case EndReasonQuit:
		return "operator quit"
	case EndReasonInputClosed:
		return "input closed"
	case EndReasonChannelClosed:
		return "connection closed"
	case EndReasonError:
		return "error"
	default:
		return "unknown"
	}
}
