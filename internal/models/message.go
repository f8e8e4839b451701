package models

import (
	"strings"
	"time"
)

// Status is a message delivery status. For a message sent by the local user
// the lifecycle is sending -> sent -> delivered -> read; a received message
// enters at delivered or read and has no sending phase.
type Status string

const (
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

var statusRank = map[Status]int{
	StatusSending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

// Rank orders statuses for monotonic upgrades. Unknown statuses rank lowest.
func (s Status) Rank() int {
	return statusRank[s]
}

// TempIDPrefix marks client-generated message ids that have not yet been
// resolved to a server id.
const TempIDPrefix = "temp-"

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	MediaRef       string    `json:"media_ref,omitempty"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsTemp reports whether the message still carries a client-generated id.
func (m *Message) IsTemp() bool {
	return strings.HasPrefix(m.ID, TempIDPrefix)
}

type Participant struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Conversation struct {
	ID           string        `json:"id"`
	Participants []Participant `json:"participants"`
}
