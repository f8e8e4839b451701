package transport

import (
	"encoding/json"
	"time"

	"github.com/fathima-sithara/chat-client/internal/models"
)

// Event names pushed by the server.
const (
	EventMessageNew      = "message:new"
	EventTypingStart     = "typing:start"
	EventTypingStop      = "typing:stop"
	EventMessageRead     = "message:read"
	EventUserOnline      = "user:online"
	EventUserOffline     = "user:offline"
	EventCallIncoming    = "call:incoming"
	EventCallAnswered    = "call:answered"
	EventCallRejected    = "call:rejected"
	EventCallEnded       = "call:ended"
	EventCallUnavailable = "call:unavailable"
)

// Action names issued by the client.
const (
	ActionJoin        = "conversation:join"
	ActionLeave       = "conversation:leave"
	ActionSendMessage = "message:send"
	ActionTypingStart = "typing:start"
	ActionTypingStop  = "typing:stop"
	ActionMarkRead    = "message:read"
	ActionCallInitiate = "call:initiate"
	ActionCallAnswer   = "call:answer"
	ActionCallReject   = "call:reject"
	ActionCallEnd      = "call:end"
	ActionCallMute     = "call:mute"
)

// Event is the wire envelope shared by pushes and actions.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// NewEvent marshals payload into an envelope. Marshal errors are impossible
// for the payload types defined here, so they are swallowed.
func NewEvent(name string, payload any) Event {
	b, _ := json.Marshal(payload)
	return Event{Name: name, Data: b}
}

type MessagePayload struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	MediaRef       string    `json:"media_ref,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	// Ref echoes the client-supplied id on pushes for the sender's own
	// messages, so the client can match the echo to its optimistic entry.
	Ref string `json:"ref,omitempty"`
}

type RoomPayload struct {
	ConversationID string `json:"conversation_id"`
}

type TypingPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
}

type ReadPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	MessageID      string `json:"message_id"`
}

type PresencePayload struct {
	UserID string `json:"user_id"`
}

type CallPayload struct {
	CallID string          `json:"call_id"`
	PeerID string          `json:"peer_id"`
	Kind   models.CallKind `json:"kind,omitempty"`
	Muted  bool            `json:"muted,omitempty"`
}

// Handler receives every pushed event. Handlers run on the transport's
// delivery goroutine and must not block.
type Handler func(evt Event)

// Transport is the realtime channel between the client and the chat server.
// Connection management and reconnection are the implementation's concern;
// actions are best-effort and may be dropped while disconnected.
type Transport interface {
	// Start opens the connection and begins delivering events to h.
	Start(h Handler) error
	// Emit sends one action envelope. Best-effort.
	Emit(evt Event) error
	Close() error
}
