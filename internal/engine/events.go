package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fathima-sithara/chat-client/internal/call"
	"github.com/fathima-sithara/chat-client/internal/models"
	"github.com/fathima-sithara/chat-client/internal/transport"
)

// handleEvent applies one pushed event. Runs on the loop.
func (e *Engine) handleEvent(evt transport.Event) {
	switch evt.Name {
	case transport.EventMessageNew:
		var p transport.MessagePayload
		if json.Unmarshal(evt.Data, &p) != nil {
			return
		}
		e.onMessageNew(p, evt)
	case transport.EventTypingStart, transport.EventTypingStop:
		var p transport.TypingPayload
		if json.Unmarshal(evt.Data, &p) != nil {
			return
		}
		e.onTyping(evt.Name, p)
	case transport.EventMessageRead:
		var p transport.ReadPayload
		if json.Unmarshal(evt.Data, &p) != nil {
			return
		}
		e.onMessageRead(p)
	case transport.EventUserOnline, transport.EventUserOffline:
		var p transport.PresencePayload
		if json.Unmarshal(evt.Data, &p) != nil {
			return
		}
		if evt.Name == transport.EventUserOnline {
			e.presence.OnOnline(p.UserID)
		} else {
			e.presence.OnOffline(p.UserID)
		}
		e.signalUpdate()
	case transport.EventCallIncoming, transport.EventCallAnswered,
		transport.EventCallRejected, transport.EventCallEnded,
		transport.EventCallUnavailable:
		var p transport.CallPayload
		if json.Unmarshal(evt.Data, &p) != nil {
			return
		}
		e.onCallEvent(evt.Name, p)
	default:
		e.log.Debugw("engine: unknown event", "event", evt.Name)
	}
}

func (e *Engine) onMessageNew(p transport.MessagePayload, raw transport.Event) {
	c, ok := e.convs[p.ConversationID]
	if !ok {
		return // not in this conversation
	}
	if !c.loaded {
		if c.loadErr == nil {
			// history fetch in flight: hold the event, replay after seeding
			c.buffer = append(c.buffer, raw)
		}
		return
	}
	own := p.SenderID == e.opts.SelfID
	st := models.StatusDelivered
	if own {
		st = models.StatusSent
	}
	m := models.Message{
		ID:             p.ID,
		ConversationID: p.ConversationID,
		SenderID:       p.SenderID,
		Content:        p.Content,
		MediaRef:       p.MediaRef,
		Status:         st,
		CreatedAt:      p.CreatedAt,
	}
	if c.res.Dedupe(m) {
		// echo of a message we already hold (e.g. the persist response won)
		return
	}
	if own && p.Ref != "" && c.res.Pending(p.Ref) {
		// the push beat the persist response: resolve the optimistic entry
		// in place, the later REST result becomes a no-op
		c.res.Resolve(p.Ref, m)
		e.signalUpdate()
		return
	}
	c.tl.Append(m)
	if !own {
		e.markRead(c, m.ID)
	}
	if e.opts.Sink != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), e.opts.RequestTimeout)
			defer cancel()
			if err := e.opts.Sink.Publish(ctx, m); err != nil {
				e.log.Debugw("engine: sink publish failed", "id", m.ID, "err", err)
			}
		}()
	}
	e.signalUpdate()
}

func (e *Engine) onTyping(name string, p transport.TypingPayload) {
	if p.UserID == e.opts.SelfID {
		return // own typing never reaches the tracker
	}
	if _, ok := e.convs[p.ConversationID]; !ok {
		return
	}
	if name == transport.EventTypingStart {
		e.typing.OnStart(p.ConversationID, p.UserID, p.Username)
	} else {
		e.typing.OnStop(p.ConversationID, p.UserID)
	}
}

// onMessageRead upgrades every own message in the conversation to read. A
// receipt from the local user is ignored: nobody read-receipts themselves.
func (e *Engine) onMessageRead(p transport.ReadPayload) {
	if p.UserID == e.opts.SelfID {
		return
	}
	c, ok := e.convs[p.ConversationID]
	if !ok {
		return
	}
	if !c.loaded {
		if c.loadErr == nil {
			c.buffer = append(c.buffer, transport.NewEvent(transport.EventMessageRead, p))
		}
		return
	}
	if c.tl.MarkReadBySender(e.opts.SelfID) > 0 {
		e.signalUpdate()
	}
}

func (e *Engine) onCallEvent(name string, p transport.CallPayload) {
	now := time.Now()
	if name == transport.EventCallIncoming {
		if e.callSess != nil && !e.callSess.State().Terminal() {
			// busy: one active session at a time, reject here not in transport
			e.emit(transport.ActionCallReject, transport.CallPayload{CallID: p.CallID, PeerID: p.PeerID})
			return
		}
		kind := p.Kind
		if kind == "" {
			kind = models.CallAudio
		}
		e.setCall(call.NewIncoming(p.CallID, p.PeerID, kind, now))
		e.signalUpdate()
		return
	}

	if e.callSess == nil || e.callSess.CallID != p.CallID {
		return // stale signal for a torn-down call
	}
	var sig call.Signal
	switch name {
	case transport.EventCallAnswered:
		sig = call.SigAnswered
	case transport.EventCallRejected:
		sig = call.SigRejected
	case transport.EventCallEnded:
		sig = call.SigEnded
	case transport.EventCallUnavailable:
		sig = call.SigUnavailable
	}
	if e.callSess.Apply(sig, now) {
		e.afterCallTransition()
		e.signalUpdate()
	}
}
