// Package timeline holds the per-conversation ordered message store and the
// derived display entries (date boundaries, sender-run grouping).
//
// A Store is owned by exactly one engine loop and is not safe for concurrent
// use; the engine serializes all access on its run goroutine.
package timeline

import (
	"sort"

	"github.com/fathima-sithara/chat-client/internal/models"
)

type Store struct {
	msgs  []models.Message
	byID  map[string]int // id -> index in msgs
}

func NewStore() *Store {
	return &Store{byID: make(map[string]int)}
}

// Append inserts the message at its sorted position by CreatedAt. Late
// out-of-order arrivals are binary-inserted; already-rendered neighbours keep
// their relative order. Appending an id that is already present is ignored.
func (s *Store) Append(m models.Message) {
	if _, ok := s.byID[m.ID]; ok {
		return
	}
	// equal timestamps keep arrival order
	i := sort.Search(len(s.msgs), func(i int) bool {
		return s.msgs[i].CreatedAt.After(m.CreatedAt)
	})
	s.msgs = append(s.msgs, models.Message{})
	copy(s.msgs[i+1:], s.msgs[i:])
	s.msgs[i] = m
	s.reindex(i)
}

// Replace swaps the entry identified by oldID for m, keeping its position in
// the timeline. Returns false if oldID is unknown.
func (s *Store) Replace(oldID string, m models.Message) bool {
	i, ok := s.byID[oldID]
	if !ok {
		return false
	}
	delete(s.byID, oldID)
	s.msgs[i] = m
	s.byID[m.ID] = i
	return true
}

// Remove drops the entry with the given id, if present.
func (s *Store) Remove(id string) {
	i, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	s.msgs = append(s.msgs[:i], s.msgs[i+1:]...)
	s.reindex(i)
}

func (s *Store) reindex(from int) {
	for i := from; i < len(s.msgs); i++ {
		s.byID[s.msgs[i].ID] = i
	}
}

func (s *Store) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

func (s *Store) Get(id string) (models.Message, bool) {
	i, ok := s.byID[id]
	if !ok {
		return models.Message{}, false
	}
	return s.msgs[i], true
}

func (s *Store) Len() int { return len(s.msgs) }

// All returns the ordered timeline. The slice is a copy; the caller may keep it.
func (s *Store) All() []models.Message {
	out := make([]models.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// UpgradeStatus raises the message's status. Downgrades are ignored: status
// is monotonic in the order sending < sent < delivered < read.
func (s *Store) UpgradeStatus(id string, st models.Status) bool {
	i, ok := s.byID[id]
	if !ok {
		return false
	}
	if st.Rank() <= s.msgs[i].Status.Rank() {
		return false
	}
	s.msgs[i].Status = st
	return true
}

// MarkReadBySender upgrades every message from senderID that is not yet read.
// Used by the read-receipt propagation: senderID is the local user, the
// receipt originator has read everything they sent.
func (s *Store) MarkReadBySender(senderID string) int {
	n := 0
	for i := range s.msgs {
		if s.msgs[i].SenderID != senderID {
			continue
		}
		if s.msgs[i].Status.Rank() < models.StatusRead.Rank() {
			s.msgs[i].Status = models.StatusRead
			n++
		}
	}
	return n
}
