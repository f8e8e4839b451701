package engine

import (
	"time"

	"github.com/fathima-sithara/chat-client/internal/call"
	"github.com/fathima-sithara/chat-client/internal/models"
	"github.com/fathima-sithara/chat-client/internal/timeline"
)

// ConversationView is the read model the presentation layer renders. It is a
// snapshot: the engine never mutates a returned view.
type ConversationView struct {
	ConversationID string
	Loaded         bool
	LoadErr        error // non-nil means show a retry affordance

	Entries  []timeline.Entry
	Messages []models.Message

	TypingUsername string // "" when nobody is typing
	PeerOnline     bool
	Participants   []models.Participant
}

// CallView is the read model for the active call, if any.
type CallView struct {
	CallID          string
	PeerID          string
	Kind            models.CallKind
	State           call.State
	DurationSeconds int
	IsMuted         bool
	IsSpeakerOn     bool
	IsVideoEnabled  bool
}

// Conversation returns the current view of an open conversation.
func (e *Engine) Conversation(conversationID string) (ConversationView, error) {
	var view ConversationView
	var err error
	derr := e.do(func() {
		c, ok := e.convs[conversationID]
		if !ok {
			err = ErrConversationUnknown
			return
		}
		view = ConversationView{
			ConversationID: conversationID,
			Loaded:         c.loaded,
			LoadErr:        c.loadErr,
		}
		if !c.loaded {
			return
		}
		now := time.Now()
		view.Entries = c.tl.WithMarkers(now)
		view.Messages = c.tl.All()
		if _, username, ok := e.typing.Typist(conversationID); ok {
			view.TypingUsername = username
		}
		for id, p := range c.participants {
			view.Participants = append(view.Participants, p)
			if id != e.opts.SelfID && e.presence.IsOnline(id) {
				view.PeerOnline = true
			}
		}
	})
	if derr != nil {
		return ConversationView{}, derr
	}
	return view, err
}

// Call returns the active call's view; ok is false when no session exists.
func (e *Engine) Call() (CallView, bool) {
	var view CallView
	var ok bool
	_ = e.do(func() {
		if e.callSess == nil {
			return
		}
		s := e.callSess
		view = CallView{
			CallID:          s.CallID,
			PeerID:          s.PeerID,
			Kind:            s.Kind,
			State:           s.State(),
			DurationSeconds: int(s.Duration(time.Now()) / time.Second),
			IsMuted:         s.IsMuted(),
			IsSpeakerOn:     s.IsSpeakerOn(),
			IsVideoEnabled:  s.IsVideoEnabled(),
		}
		ok = true
	})
	return view, ok
}
