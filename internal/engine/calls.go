package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/fathima-sithara/chat-client/internal/call"
	"github.com/fathima-sithara/chat-client/internal/models"
	"github.com/fathima-sithara/chat-client/internal/transport"
)

// StartCall begins an outgoing call. Only one active session is allowed; a
// second request is rejected here, never forwarded to the transport.
func (e *Engine) StartCall(peerID string, kind models.CallKind) (string, error) {
	var callID string
	var err error
	derr := e.do(func() {
		if e.callSess != nil && !e.callSess.State().Terminal() {
			err = ErrCallActive
			return
		}
		callID = uuid.NewString()
		sess := call.NewOutgoing(callID, peerID, kind, time.Now())
		e.setCall(sess)
		e.emit(transport.ActionCallInitiate, transport.CallPayload{
			CallID: callID,
			PeerID: peerID,
			Kind:   kind,
		})
		// ringing as soon as the initiate action has been issued
		sess.Apply(call.SigRing, time.Now())
		e.signalUpdate()
	})
	if derr != nil {
		return "", derr
	}
	return callID, err
}

// AcceptCall answers the current incoming call. The answer action goes to
// the transport before the local transition.
func (e *Engine) AcceptCall() error {
	return e.callIntent(call.SigAccepted, transport.ActionCallAnswer)
}

// DeclineCall rejects the current incoming call.
func (e *Engine) DeclineCall() error {
	return e.callIntent(call.SigDeclined, transport.ActionCallReject)
}

// EndCall hangs up.
func (e *Engine) EndCall() error {
	return e.callIntent(call.SigEnded, transport.ActionCallEnd)
}

func (e *Engine) callIntent(sig call.Signal, action string) error {
	var err error
	derr := e.do(func() {
		if e.callSess == nil {
			err = ErrNoCall
			return
		}
		sess := e.callSess
		e.emit(action, transport.CallPayload{CallID: sess.CallID, PeerID: sess.PeerID})
		if sess.Apply(sig, time.Now()) {
			e.afterCallTransition()
			e.signalUpdate()
		}
	})
	if derr != nil {
		return derr
	}
	return err
}

// ToggleMute flips the local mute flag and notifies the peer. Lifecycle
// state is unaffected.
func (e *Engine) ToggleMute() (bool, error) {
	var muted bool
	derr := e.do(func() {
		if e.callSess == nil {
			return
		}
		muted = e.callSess.ToggleMute()
		e.emit(transport.ActionCallMute, transport.CallPayload{
			CallID: e.callSess.CallID,
			PeerID: e.callSess.PeerID,
			Muted:  muted,
		})
		e.signalUpdate()
	})
	return muted, derr
}

// ToggleSpeaker flips the local speaker flag. Local only.
func (e *Engine) ToggleSpeaker() (bool, error) {
	var on bool
	derr := e.do(func() {
		if e.callSess == nil {
			return
		}
		on = e.callSess.ToggleSpeaker()
		e.signalUpdate()
	})
	return on, derr
}

func (e *Engine) setCall(sess *call.Session) {
	if e.callDone != nil {
		e.callDone.Stop()
		e.callDone = nil
	}
	e.callSess = sess
}

// afterCallTransition schedules session teardown once a terminal state is
// reached. The grace delay lets the presentation show the terminal status
// before the session disappears.
func (e *Engine) afterCallTransition() {
	sess := e.callSess
	if sess == nil || !sess.State().Terminal() {
		return
	}
	if e.callDone != nil {
		e.callDone.Stop()
	}
	e.callDone = time.AfterFunc(e.opts.CallTeardown, func() {
		e.post(func() {
			if e.callSess == sess {
				e.callSess = nil
				e.callDone = nil
				e.signalUpdate()
			}
		})
	})
}
