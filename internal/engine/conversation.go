package engine

import (
	"context"
	"time"

	"github.com/fathima-sithara/chat-client/internal/identity"
	"github.com/fathima-sithara/chat-client/internal/models"
	"github.com/fathima-sithara/chat-client/internal/rest"
	"github.com/fathima-sithara/chat-client/internal/timeline"
	"github.com/fathima-sithara/chat-client/internal/transport"
)

// conversation is the loop-owned state for one open conversation.
type conversation struct {
	id           string
	tl           *timeline.Store
	res          *identity.Resolver
	participants map[string]models.Participant

	loaded  bool
	loadErr error
	// events pushed while the history fetch is in flight; replayed in arrival
	// order after seeding
	buffer []transport.Event

	// incoming ids already read-receipted; receipts go out once per id
	marked     map[string]struct{}
	lastReadID string

	composing   bool
	composeStop *time.Timer
}

func newConversation(id string) *conversation {
	tl := timeline.NewStore()
	return &conversation{
		id:           id,
		tl:           tl,
		res:          identity.NewResolver(tl),
		participants: make(map[string]models.Participant),
		marked:       make(map[string]struct{}),
	}
}

// OpenConversation joins the conversation's room and starts the history
// fetch. Reopening an already-open conversation is a no-op: rooms are joined
// exactly once and subscriptions never accumulate.
func (e *Engine) OpenConversation(conversationID string) error {
	return e.do(func() {
		if _, ok := e.convs[conversationID]; ok {
			return
		}
		c := newConversation(conversationID)
		e.convs[conversationID] = c
		e.emit(transport.ActionJoin, transport.RoomPayload{ConversationID: conversationID})
		go e.fetchHistory(c)
	})
}

// RetryLoad re-runs a failed history fetch.
func (e *Engine) RetryLoad(conversationID string) error {
	var err error
	derr := e.do(func() {
		c, ok := e.convs[conversationID]
		if !ok {
			err = ErrConversationUnknown
			return
		}
		if c.loaded || c.loadErr == nil {
			return
		}
		c.loadErr = nil
		go e.fetchHistory(c)
	})
	if derr != nil {
		return derr
	}
	return err
}

// CloseConversation leaves the room, cancels the conversation's timers and
// drops its state. In-flight continuations for it become no-ops.
func (e *Engine) CloseConversation(conversationID string) error {
	return e.do(func() {
		e.closeConversationLocked(conversationID)
	})
}

func (e *Engine) closeConversationLocked(conversationID string) {
	c, ok := e.convs[conversationID]
	if !ok {
		return
	}
	if c.composeStop != nil {
		c.composeStop.Stop()
	}
	e.typing.CloseConversation(conversationID)
	for id := range c.participants {
		if id != e.opts.SelfID {
			e.presence.Forget(id)
		}
	}
	e.emit(transport.ActionLeave, transport.RoomPayload{ConversationID: conversationID})
	delete(e.convs, conversationID)
}

func (e *Engine) fetchHistory(c *conversation) {
	ctx, cancel := context.WithTimeout(context.Background(), e.opts.RequestTimeout)
	defer cancel()

	h, err := e.opts.Persistence.FetchHistory(ctx, c.id)
	lastRead := ""
	if err == nil && e.opts.Durable != nil {
		if v, derr := e.opts.Durable.LastRead(ctx, c.id); derr == nil {
			lastRead = v
		}
	}
	e.post(func() {
		if e.convs[c.id] != c {
			return // navigated away while fetching
		}
		e.seedHistory(c, h, lastRead, err)
	})
}

// seedHistory applies the fetched history and replays any events buffered
// during the fetch, in arrival order.
func (e *Engine) seedHistory(c *conversation, h *rest.History, lastRead string, err error) {
	if err != nil {
		c.loadErr = err
		c.buffer = nil
		e.log.Warnw("engine: history fetch failed", "conversation", c.id, "err", err)
		e.signalUpdate()
		return
	}
	for _, p := range h.Participants {
		c.participants[p.ID] = p
	}
	c.lastReadID = lastRead
	seen := lastRead == ""
	for _, m := range h.Messages {
		if m.Status == "" {
			if m.SenderID == e.opts.SelfID {
				m.Status = models.StatusSent
			} else {
				m.Status = models.StatusDelivered
			}
		}
		c.tl.Append(m)
		if m.SenderID != e.opts.SelfID {
			if !seen {
				// already receipted before the last restart
				c.marked[m.ID] = struct{}{}
			} else {
				e.markRead(c, m.ID)
			}
		}
		if m.ID == lastRead {
			seen = true
		}
	}
	c.loaded = true
	buffered := c.buffer
	c.buffer = nil
	for _, evt := range buffered {
		e.applyGuarded(evt)
	}
	e.signalUpdate()
}

// markRead emits one read receipt for an incoming message id and records it
// durably so the receipt is not re-emitted after a restart.
func (e *Engine) markRead(c *conversation, messageID string) {
	if _, ok := c.marked[messageID]; ok {
		return
	}
	c.marked[messageID] = struct{}{}
	c.lastReadID = messageID
	e.emit(transport.ActionMarkRead, transport.ReadPayload{
		ConversationID: c.id,
		UserID:         e.opts.SelfID,
		MessageID:      messageID,
	})
	if e.opts.Durable != nil {
		convID := c.id
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), e.opts.RequestTimeout)
			defer cancel()
			if err := e.opts.Durable.SetLastRead(ctx, convID, messageID); err != nil {
				e.log.Debugw("engine: last-read persist failed", "conversation", convID, "err", err)
			}
		}()
	}
}

// Send inserts an optimistic entry under a fresh temp id, fires the transport
// send and persists over REST in parallel. Whichever channel produces the
// canonical record first wins; the other is deduplicated. On persistence
// failure the entry stays visible at "sending".
func (e *Engine) Send(conversationID, content, mediaRef string) (string, error) {
	var tempID string
	var err error
	derr := e.do(func() {
		c, ok := e.convs[conversationID]
		if !ok {
			err = ErrConversationUnknown
			return
		}
		if !c.loaded {
			err = ErrConversationLoading
			return
		}
		tempID = identity.NewTempID()
		draft := models.Message{
			ConversationID: conversationID,
			SenderID:       e.opts.SelfID,
			Content:        content,
			MediaRef:       mediaRef,
			CreatedAt:      time.Now(),
		}
		draft = c.res.RegisterOptimistic(tempID, draft)
		e.stopComposing(c)
		e.emit(transport.ActionSendMessage, transport.MessagePayload{
			ID:             tempID,
			Ref:            tempID,
			ConversationID: conversationID,
			SenderID:       e.opts.SelfID,
			Content:        content,
			MediaRef:       mediaRef,
			CreatedAt:      draft.CreatedAt,
		})
		go e.persistSend(c, tempID, content, mediaRef)
		e.signalUpdate()
	})
	if derr != nil {
		return "", derr
	}
	return tempID, err
}

func (e *Engine) persistSend(c *conversation, tempID, content, mediaRef string) {
	ctx, cancel := context.WithTimeout(context.Background(), e.opts.RequestTimeout)
	defer cancel()

	m, err := e.opts.Persistence.SendMessage(ctx, c.id, content, mediaRef)
	e.post(func() {
		if e.convs[c.id] != c {
			return // conversation closed while the persist was in flight
		}
		if err != nil {
			// the optimistic entry stays visible at "sending"; there is no
			// failed state and no retry queue
			e.log.Warnw("engine: send persist failed", "conversation", c.id, "temp", tempID, "err", err)
			return
		}
		c.res.Resolve(tempID, *m)
		e.signalUpdate()
	})
}

// ComposeActivity reports local keystrokes. The start signal goes out once
// per burst; the stop signal after the quiet window of inactivity, or
// immediately when the message is sent.
func (e *Engine) ComposeActivity(conversationID string) error {
	return e.do(func() {
		c, ok := e.convs[conversationID]
		if !ok {
			return
		}
		if !c.composing {
			c.composing = true
			e.emit(transport.ActionTypingStart, transport.TypingPayload{
				ConversationID: conversationID,
				UserID:         e.opts.SelfID,
				Username:       e.opts.Username,
			})
		}
		if c.composeStop != nil {
			c.composeStop.Stop()
		}
		c.composeStop = time.AfterFunc(e.opts.TypingQuiet, func() {
			e.post(func() {
				if e.convs[conversationID] == c {
					e.stopComposing(c)
				}
			})
		})
	})
}

func (e *Engine) stopComposing(c *conversation) {
	if c.composeStop != nil {
		c.composeStop.Stop()
		c.composeStop = nil
	}
	if !c.composing {
		return
	}
	c.composing = false
	e.emit(transport.ActionTypingStop, transport.TypingPayload{
		ConversationID: c.id,
		UserID:         e.opts.SelfID,
		Username:       e.opts.Username,
	})
}
