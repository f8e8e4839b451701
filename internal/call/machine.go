// Package call implements the signaling state machine for one call session.
// Media negotiation is out of scope; only the lifecycle around it is modeled.
package call

type State string

const (
	StateInitiating  State = "initiating"
	StateRinging     State = "ringing"
	StateIncoming    State = "incoming"
	StateConnected   State = "connected"
	StateEnded       State = "ended"
	StateRejected    State = "rejected"
	StateUnavailable State = "unavailable"
)

// Terminal states are sticky: no signal moves a session out of them.
func (s State) Terminal() bool {
	return s == StateEnded || s == StateRejected || s == StateUnavailable
}

// Signal is an input to the machine, from the local user or the peer.
type Signal string

const (
	// SigRing: the initiate action went out to the transport (caller side).
	SigRing Signal = "ring"
	// SigAnswered: the peer answered our outgoing call.
	SigAnswered Signal = "answered"
	// SigAccepted: the local user accepted an incoming call.
	SigAccepted Signal = "accepted"
	// SigDeclined: the local user declined an incoming call.
	SigDeclined Signal = "declined"
	// SigRejected: the peer rejected our outgoing call.
	SigRejected Signal = "rejected"
	// SigEnded: either side hung up.
	SigEnded Signal = "ended"
	// SigUnavailable: the peer is offline or unreachable.
	SigUnavailable Signal = "unavailable"
)

var transitions = map[State]map[Signal]State{
	StateInitiating: {
		SigRing:        StateRinging,
		SigRejected:    StateRejected,
		SigEnded:       StateEnded,
		SigUnavailable: StateUnavailable,
	},
	StateRinging: {
		SigAnswered:    StateConnected,
		SigRejected:    StateRejected,
		SigEnded:       StateEnded,
		SigUnavailable: StateUnavailable,
	},
	StateIncoming: {
		SigAccepted:    StateConnected,
		SigDeclined:    StateRejected,
		SigEnded:       StateEnded,
		SigUnavailable: StateUnavailable,
	},
	StateConnected: {
		SigEnded:       StateEnded,
		SigUnavailable: StateUnavailable,
	},
}

// Next returns the successor state, or the current state with ok=false when
// the (state, signal) pair is not a listed transition. Unlisted pairs are
// no-ops, never errors.
func Next(from State, sig Signal) (State, bool) {
	to, ok := transitions[from][sig]
	if !ok {
		return from, false
	}
	return to, true
}
