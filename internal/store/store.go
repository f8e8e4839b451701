// Package store remembers the small amount of state that must survive a
// process restart: the id of the last message marked read per conversation.
package store

import "context"

type Store interface {
	// LastRead returns the last message id marked read in the conversation,
	// or "" if none was recorded.
	LastRead(ctx context.Context, conversationID string) (string, error)
	SetLastRead(ctx context.Context, conversationID, messageID string) error
	Close() error
}
