package call

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/chat-client/internal/models"
)

var allStates = []State{
	StateInitiating, StateRinging, StateIncoming, StateConnected,
	StateEnded, StateRejected, StateUnavailable,
}

var allSignals = []Signal{
	SigRing, SigAnswered, SigAccepted, SigDeclined,
	SigRejected, SigEnded, SigUnavailable,
}

// expected lists every legal (state, signal) -> state transition. Every pair
// absent from this table must be a no-op.
var expected = map[State]map[Signal]State{
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

func TestTransitionTableIsExhaustive(t *testing.T) {
	for _, from := range allStates {
		for _, sig := range allSignals {
			to, ok := Next(from, sig)
			want, listed := expected[from][sig]
			if listed {
				assert.True(t, ok, "%s + %s should transition", from, sig)
				assert.Equal(t, want, to, "%s + %s", from, sig)
			} else {
				assert.False(t, ok, "%s + %s should be a no-op", from, sig)
				assert.Equal(t, from, to, "%s + %s must not move", from, sig)
			}
		}
	}
}

func TestTerminalStatesAreSticky(t *testing.T) {
	for _, from := range []State{StateEnded, StateRejected, StateUnavailable} {
		require.True(t, from.Terminal())
		for _, sig := range allSignals {
			_, ok := Next(from, sig)
			assert.False(t, ok, "%s + %s", from, sig)
		}
	}
}

func TestOutgoingCallLifecycle(t *testing.T) {
	now := time.Now()
	s := NewOutgoing("call-1", "peer", models.CallAudio, now)
	assert.Equal(t, StateInitiating, s.State())

	require.True(t, s.Apply(SigRing, now))
	assert.Equal(t, StateRinging, s.State())

	require.True(t, s.Apply(SigAnswered, now.Add(2*time.Second)))
	assert.Equal(t, StateConnected, s.State())

	require.True(t, s.Apply(SigEnded, now.Add(32*time.Second)))
	assert.Equal(t, StateEnded, s.State())
}

func TestIncomingDeclineStaysRejected(t *testing.T) {
	now := time.Now()
	s := NewIncoming("call-1", "peer", models.CallVideo, now)
	assert.Equal(t, StateIncoming, s.State())

	require.True(t, s.Apply(SigDeclined, now))
	assert.Equal(t, StateRejected, s.State())

	// a late answered event for the same call is ignored
	assert.False(t, s.Apply(SigAnswered, now))
	assert.Equal(t, StateRejected, s.State())
}

func TestDurationCountsOnlyWhileConnected(t *testing.T) {
	now := time.Now()
	s := NewOutgoing("call-1", "peer", models.CallAudio, now)
	s.Apply(SigRing, now)

	assert.Zero(t, s.Duration(now.Add(10*time.Second)))

	s.Apply(SigAnswered, now.Add(10*time.Second))
	assert.Equal(t, 5*time.Second, s.Duration(now.Add(15*time.Second)))

	s.Apply(SigEnded, now.Add(40*time.Second))
	// frozen at hangup regardless of how much later we ask
	assert.Equal(t, 30*time.Second, s.Duration(now.Add(5*time.Minute)))
}

func TestMediaTogglesDoNotTouchState(t *testing.T) {
	now := time.Now()
	s := NewIncoming("call-1", "peer", models.CallVideo, now)
	assert.True(t, s.IsVideoEnabled())

	assert.True(t, s.ToggleMute())
	assert.True(t, s.ToggleSpeaker())
	assert.False(t, s.ToggleMute())
	assert.Equal(t, StateIncoming, s.State())
}
