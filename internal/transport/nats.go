package transport

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const natsActionSubject = "chat.actions"

// NATSTransport maps the event envelope onto NATS subjects: pushes for a
// conversation arrive on chat.<conversationId>, pushes addressed to this
// user (presence, call signaling) on user.<userId>, and every outbound
// action is published to chat.actions for the server to consume.
type NATSTransport struct {
	nc     *nats.Conn
	userID string
	log    *zap.SugaredLogger

	mu      sync.Mutex
	subs    map[string]*nats.Subscription
	handler Handler
	started bool
}

func NewNATSTransport(url, userID string, log *zap.SugaredLogger) (*NATSTransport, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectHandler(func(*nats.Conn) {
			log.Infow("nats: reconnected")
		}),
	)
	if err != nil {
		return nil, err
	}
	return &NATSTransport{
		nc:     nc,
		userID: userID,
		log:    log,
		subs:   make(map[string]*nats.Subscription),
	}, nil
}

func (t *NATSTransport) Start(h Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return errors.New("transport already started")
	}
	t.started = true
	t.handler = h
	return t.subscribeLocked("user." + t.userID)
}

func (t *NATSTransport) subscribeLocked(subject string) error {
	if _, ok := t.subs[subject]; ok {
		return nil
	}
	sub, err := t.nc.Subscribe(subject, func(m *nats.Msg) {
		var evt Event
		if err := json.Unmarshal(m.Data, &evt); err != nil {
			t.log.Warnw("nats: dropping malformed event", "subject", m.Subject, "err", err)
			return
		}
		t.mu.Lock()
		h := t.handler
		t.mu.Unlock()
		if h != nil {
			h(evt)
		}
	})
	if err != nil {
		return err
	}
	t.subs[subject] = sub
	return nil
}

func (t *NATSTransport) Emit(evt Event) error {
	switch evt.Name {
	case ActionJoin, ActionLeave:
		var p RoomPayload
		if err := json.Unmarshal(evt.Data, &p); err != nil || p.ConversationID == "" {
			return errors.New("invalid room payload")
		}
		t.mu.Lock()
		defer t.mu.Unlock()
		subject := "chat." + p.ConversationID
		if evt.Name == ActionLeave {
			if sub, ok := t.subs[subject]; ok {
				_ = sub.Unsubscribe()
				delete(t.subs, subject)
			}
			// fall through to tell the server too
		} else if err := t.subscribeLocked(subject); err != nil {
			return err
		}
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return t.nc.Publish(natsActionSubject, b)
}

func (t *NATSTransport) Close() error {
	t.mu.Lock()
	for s, sub := range t.subs {
		_ = sub.Unsubscribe()
		delete(t.subs, s)
	}
	t.mu.Unlock()
	t.nc.Close()
	return nil
}
