// Package presence keeps a current-snapshot view of who is online.
// Last write wins; no history is retained.
package presence

import (
	"sync"
	"time"
)

type state struct {
	online bool
	at     time.Time
}

type Tracker struct {
	mu sync.RWMutex
	m  map[string]state
}

func NewTracker() *Tracker {
	return &Tracker{m: make(map[string]state)}
}

func (t *Tracker) OnOnline(participantID string) {
	t.set(participantID, true)
}

func (t *Tracker) OnOffline(participantID string) {
	t.set(participantID, false)
}

func (t *Tracker) set(participantID string, online bool) {
	t.mu.Lock()
	t.m[participantID] = state{online: online, at: time.Now()}
	t.mu.Unlock()
}

func (t *Tracker) IsOnline(participantID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.m[participantID].online
}

// LastUpdated returns when the participant's presence last changed; the zero
// time if never observed.
func (t *Tracker) LastUpdated(participantID string) time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.m[participantID].at
}

// Forget drops a participant's snapshot, e.g. on leaving a conversation.
func (t *Tracker) Forget(participantID string) {
	t.mu.Lock()
	delete(t.m, participantID)
	t.mu.Unlock()
}
