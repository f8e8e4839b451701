package call

import (
	"time"

	"github.com/fathima-sithara/chat-client/internal/models"
)

// Session is the mutable state of one call. It is owned by a single engine
// loop; the engine serializes access.
type Session struct {
	CallID string
	PeerID string
	Kind   models.CallKind

	state       State
	startedAt   time.Time
	connectedAt time.Time
	endedAt     time.Time

	muted        bool
	speakerOn    bool
	videoEnabled bool
}

// NewOutgoing creates a caller-side session in the initiating state.
func NewOutgoing(callID, peerID string, kind models.CallKind, now time.Time) *Session {
	return &Session{
		CallID:       callID,
		PeerID:       peerID,
		Kind:         kind,
		state:        StateInitiating,
		startedAt:    now,
		videoEnabled: kind == models.CallVideo,
	}
}

// NewIncoming creates a callee-side session from an inbound call offer.
func NewIncoming(callID, peerID string, kind models.CallKind, now time.Time) *Session {
	s := NewOutgoing(callID, peerID, kind, now)
	s.state = StateIncoming
	return s
}

func (s *Session) State() State { return s.state }

// Apply feeds one signal through the machine. It returns false when the
// signal is a no-op for the current state (including any signal while in a
// terminal state).
func (s *Session) Apply(sig Signal, now time.Time) bool {
	next, ok := Next(s.state, sig)
	if !ok {
		return false
	}
	if s.state == StateConnected && next != StateConnected {
		s.endedAt = now
	}
	if next == StateConnected && s.state != StateConnected {
		s.connectedAt = now
	}
	s.state = next
	return true
}

// Duration is how long the call has been (or was) connected. It is zero until
// the connected state is entered and freezes on any transition out of it.
func (s *Session) Duration(now time.Time) time.Duration {
	if s.connectedAt.IsZero() {
		return 0
	}
	if s.state == StateConnected {
		return now.Sub(s.connectedAt)
	}
	return s.endedAt.Sub(s.connectedAt)
}

// Local media toggles. These never affect the lifecycle state; the engine
// mirrors them to the transport as a courtesy notification.
func (s *Session) ToggleMute() bool {
	s.muted = !s.muted
	return s.muted
}

func (s *Session) ToggleSpeaker() bool {
	s.speakerOn = !s.speakerOn
	return s.speakerOn
}

func (s *Session) SetVideoEnabled(on bool) { s.videoEnabled = on }

func (s *Session) IsMuted() bool        { return s.muted }
func (s *Session) IsSpeakerOn() bool    { return s.speakerOn }
func (s *Session) IsVideoEnabled() bool { return s.videoEnabled }
func (s *Session) StartedAt() time.Time { return s.startedAt }
