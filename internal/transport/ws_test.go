package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type wsTestServer struct {
	srv *httptest.Server

	mu       sync.Mutex
	conns    []*websocket.Conn
	received []Event
	headers  []http.Header
}

func newWSTestServer(t *testing.T) *wsTestServer {
	t.Helper()
	s := &wsTestServer{}
	up := websocket.Upgrader{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.headers = append(s.headers, r.Header.Clone())
		s.mu.Unlock()
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		for {
			var evt Event
			if err := conn.ReadJSON(&evt); err != nil {
				return
			}
			s.mu.Lock()
			s.received = append(s.received, evt)
			s.mu.Unlock()
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsTestServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *wsTestServer) pushToClient(t *testing.T, evt Event) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.conns)
	require.NoError(t, s.conns[len(s.conns)-1].WriteJSON(evt))
}

func (s *wsTestServer) receivedEvents(name string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.received {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func TestWSTransportDelivery(t *testing.T) {
	srv := newWSTestServer(t)

	var mu sync.Mutex
	var got []Event
	tr := NewWSTransport(srv.url(), "tok", zap.NewNop().Sugar())
	require.NoError(t, tr.Start(func(evt Event) {
		mu.Lock()
		got = append(got, evt)
		mu.Unlock()
	}))
	defer tr.Close()

	srv.pushToClient(t, NewEvent(EventUserOnline, PresencePayload{UserID: "u1"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0].Name == EventUserOnline
	}, 2*time.Second, 10*time.Millisecond)

	// bearer token went up with the handshake
	srv.mu.Lock()
	hdr := srv.headers[0].Get("Authorization")
	srv.mu.Unlock()
	assert.Equal(t, "Bearer tok", hdr)
}

func TestWSTransportEmit(t *testing.T) {
	srv := newWSTestServer(t)

	tr := NewWSTransport(srv.url(), "", zap.NewNop().Sugar())
	require.NoError(t, tr.Start(func(Event) {}))
	defer tr.Close()

	require.NoError(t, tr.Emit(NewEvent(ActionJoin, RoomPayload{ConversationID: "c1"})))
	require.NoError(t, tr.Emit(NewEvent(ActionTypingStart, TypingPayload{ConversationID: "c1", UserID: "me"})))

	require.Eventually(t, func() bool {
		return len(srv.receivedEvents(ActionJoin)) == 1 &&
			len(srv.receivedEvents(ActionTypingStart)) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWSTransportRejoinsRoomsAfterRedial(t *testing.T) {
	srv := newWSTestServer(t)

	tr := NewWSTransport(srv.url(), "", zap.NewNop().Sugar())
	require.NoError(t, tr.Start(func(Event) {}))
	defer tr.Close()

	require.NoError(t, tr.Emit(NewEvent(ActionJoin, RoomPayload{ConversationID: "c1"})))
	require.Eventually(t, func() bool {
		return len(srv.receivedEvents(ActionJoin)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// sever the connection server-side; the client redials and rejoins
	srv.mu.Lock()
	_ = srv.conns[0].Close()
	srv.mu.Unlock()

	require.Eventually(t, func() bool {
		return len(srv.receivedEvents(ActionJoin)) == 2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWSTransportStartTwice(t *testing.T) {
	srv := newWSTestServer(t)

	tr := NewWSTransport(srv.url(), "", zap.NewNop().Sugar())
	require.NoError(t, tr.Start(func(Event) {}))
	defer tr.Close()
	assert.Error(t, tr.Start(func(Event) {}))
}

func TestWSTransportEmitAfterClose(t *testing.T) {
	srv := newWSTestServer(t)

	tr := NewWSTransport(srv.url(), "", zap.NewNop().Sugar())
	require.NoError(t, tr.Start(func(Event) {}))
	require.NoError(t, tr.Close())
	assert.Error(t, tr.Emit(NewEvent(ActionJoin, RoomPayload{ConversationID: "c1"})))
}
