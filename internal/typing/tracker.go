// Package typing tracks remote typing indicators with a liveness guarantee:
// an indicator clears no later than the quiet window after the last start
// signal, even if the peer never sends a stop (disconnect, app kill).
package typing

import (
	"sync"
	"time"
)

const DefaultQuiet = 2 * time.Second

type entry struct {
	participantID string
	username      string
	timer         *time.Timer
	gen           uint64
}

// Tracker keeps at most one typist per conversation; a later start from a
// different participant replaces the current one (last writer wins).
type Tracker struct {
	quiet    time.Duration
	onChange func(conversationID string)

	mu      sync.Mutex
	entries map[string]*entry
	gen     uint64
}

// NewTracker builds a tracker with the given quiet window. onChange fires
// after every observable transition, including timer expiry; it may be nil.
func NewTracker(quiet time.Duration, onChange func(conversationID string)) *Tracker {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Tracker{
		quiet:    quiet,
		onChange: onChange,
		entries:  make(map[string]*entry),
	}
}

func (t *Tracker) OnStart(conversationID, participantID, username string) {
	t.mu.Lock()
	e, ok := t.entries[conversationID]
	if ok {
		e.timer.Stop()
	} else {
		e = &entry{}
		t.entries[conversationID] = e
	}
	t.gen++
	gen := t.gen
	e.participantID = participantID
	e.username = username
	e.gen = gen
	e.timer = time.AfterFunc(t.quiet, func() { t.expire(conversationID, gen) })
	t.mu.Unlock()
	t.notify(conversationID)
}

func (t *Tracker) OnStop(conversationID, participantID string) {
	t.mu.Lock()
	e, ok := t.entries[conversationID]
	if !ok || e.participantID != participantID {
		t.mu.Unlock()
		return
	}
	e.timer.Stop()
	delete(t.entries, conversationID)
	t.mu.Unlock()
	t.notify(conversationID)
}

// expire clears the indicator if it has not been refreshed since the timer
// was armed.
func (t *Tracker) expire(conversationID string, gen uint64) {
	t.mu.Lock()
	e, ok := t.entries[conversationID]
	if !ok || e.gen != gen {
		t.mu.Unlock()
		return
	}
	delete(t.entries, conversationID)
	t.mu.Unlock()
	t.notify(conversationID)
}

// Typist returns the participant currently typing in the conversation.
func (t *Tracker) Typist(conversationID string) (participantID, username string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, found := t.entries[conversationID]
	if !found {
		return "", "", false
	}
	return e.participantID, e.username, true
}

// CloseConversation drops the conversation's state and cancels its timer.
func (t *Tracker) CloseConversation(conversationID string) {
	t.mu.Lock()
	if e, ok := t.entries[conversationID]; ok {
		e.timer.Stop()
		delete(t.entries, conversationID)
	}
	t.mu.Unlock()
}

// Stop cancels every pending timer.
func (t *Tracker) Stop() {
	t.mu.Lock()
	for id, e := range t.entries {
		e.timer.Stop()
		delete(t.entries, id)
	}
	t.mu.Unlock()
}

func (t *Tracker) notify(conversationID string) {
	if t.onChange != nil {
		t.onChange(conversationID)
	}
}
