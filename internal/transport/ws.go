package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteDeadline  = 10 * time.Second
	wsReadDeadline   = 60 * time.Second
	wsPingInterval   = 30 * time.Second
	wsMaxMessageSize = 1024 * 64
	wsRedialBase     = 500 * time.Millisecond
	wsRedialMax      = 15 * time.Second
)

// WSTransport speaks the JSON event envelope over a single websocket.
// It redials with exponential backoff when the connection drops and
// rejoins every conversation room joined before the drop.
type WSTransport struct {
	url   string
	token string
	log   *zap.SugaredLogger

	mu      sync.Mutex
	conn    *websocket.Conn
	rooms   map[string]struct{}
	handler Handler
	closed  bool
	done    chan struct{}
}

func NewWSTransport(url, token string, log *zap.SugaredLogger) *WSTransport {
	return &WSTransport{
		url:   url,
		token: token,
		log:   log,
		rooms: make(map[string]struct{}),
		done:  make(chan struct{}),
	}
}

func (t *WSTransport) Start(h Handler) error {
	t.mu.Lock()
	if t.handler != nil {
		t.mu.Unlock()
		return errors.New("transport already started")
	}
	t.handler = h
	t.mu.Unlock()

	conn, err := t.dial()
	if err != nil {
		return err
	}
	t.setConn(conn)
	go t.readPump(conn)
	go t.pingLoop()
	return nil
}

func (t *WSTransport) dial() (*websocket.Conn, error) {
	hdr := http.Header{}
	if t.token != "" {
		hdr.Set("Authorization", "Bearer "+t.token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(t.url, hdr)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	})
	return conn, nil
}

func (t *WSTransport) setConn(c *websocket.Conn) {
	t.mu.Lock()
	t.conn = c
	t.mu.Unlock()
}

func (t *WSTransport) readPump(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			t.redial()
			return
		}
		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			t.log.Warnw("ws: dropping malformed frame", "err", err)
			continue
		}
		t.mu.Lock()
		h := t.handler
		t.mu.Unlock()
		if h != nil {
			h(evt)
		}
	}
}

// redial reconnects with exponential backoff and rejoins known rooms.
func (t *WSTransport) redial() {
	delay := wsRedialBase
	for {
		select {
		case <-t.done:
			return
		case <-time.After(delay):
		}
		conn, err := t.dial()
		if err != nil {
			t.log.Warnw("ws: redial failed", "err", err)
			if delay *= 2; delay > wsRedialMax {
				delay = wsRedialMax
			}
			continue
		}
		t.setConn(conn)
		t.mu.Lock()
		rooms := make([]string, 0, len(t.rooms))
		for r := range t.rooms {
			rooms = append(rooms, r)
		}
		t.mu.Unlock()
		for _, r := range rooms {
			_ = t.Emit(NewEvent(ActionJoin, RoomPayload{ConversationID: r}))
		}
		go t.readPump(conn)
		return
	}
}

func (t *WSTransport) pingLoop() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.mu.Lock()
			conn := t.conn
			t.mu.Unlock()
			if conn != nil {
				_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(time.Second))
			}
		}
	}
}

// Emit writes one envelope. Join/leave actions also update the room set used
// for resubscription after a redial.
func (t *WSTransport) Emit(evt Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errors.New("transport closed")
	}
	switch evt.Name {
	case ActionJoin, ActionLeave:
		var p RoomPayload
		if err := json.Unmarshal(evt.Data, &p); err == nil && p.ConversationID != "" {
			if evt.Name == ActionJoin {
				t.rooms[p.ConversationID] = struct{}{}
			} else {
				delete(t.rooms, p.ConversationID)
			}
		}
	}
	if t.conn == nil {
		return errors.New("not connected")
	}
	_ = t.conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
	return t.conn.WriteJSON(evt)
}

func (t *WSTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.done)
	if t.conn != nil {
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		return t.conn.Close()
	}
	return nil
}
