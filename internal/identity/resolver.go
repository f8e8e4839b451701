// Package identity maps client-generated temporary message ids to the
// canonical ids assigned by the persistence layer, so the same logical
// message is never rendered twice no matter which channel delivers it first.
package identity

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fathima-sithara/chat-client/internal/models"
	"github.com/fathima-sithara/chat-client/internal/timeline"
)

type Resolver struct {
	store *timeline.Store
	// tempID -> canonical id once resolved; "" while the persist is in flight
	pending map[string]string
}

func NewResolver(store *timeline.Store) *Resolver {
	return &Resolver{store: store, pending: make(map[string]string)}
}

// NewTempID mints a fresh temporary message id.
func NewTempID() string {
	return fmt.Sprintf("%s%s", models.TempIDPrefix, uuid.NewString())
}

// RegisterOptimistic inserts the draft into the timeline under its temp id
// and starts tracking it for resolution.
func (r *Resolver) RegisterOptimistic(tempID string, draft models.Message) models.Message {
	draft.ID = tempID
	draft.Status = models.StatusSending
	r.pending[tempID] = ""
	r.store.Append(draft)
	return draft
}

// Resolve swaps the optimistic entry for the canonical record, preserving its
// timeline position. Resolution is idempotent: resolving twice, or resolving
// after the canonical message already arrived over the push channel, neither
// duplicates nor reorders the timeline.
func (r *Resolver) Resolve(tempID string, canonical models.Message) models.Message {
	if canonical.Status.Rank() < models.StatusSent.Rank() {
		canonical.Status = models.StatusSent
	}
	if prev, ok := r.pending[tempID]; ok && prev != "" {
		// already resolved; the first resolution won
		if got, ok := r.store.Get(prev); ok {
			return got
		}
		return canonical
	}
	if r.store.Has(canonical.ID) {
		// push beat the persist response: keep the pushed row, drop the temp
		r.store.Remove(tempID)
		r.pending[tempID] = canonical.ID
		got, _ := r.store.Get(canonical.ID)
		return got
	}
	if r.store.Replace(tempID, canonical) {
		r.pending[tempID] = canonical.ID
		return canonical
	}
	// temp entry gone (conversation re-seeded); fall back to a plain append
	r.pending[tempID] = canonical.ID
	r.store.Append(canonical)
	return canonical
}

// Pending reports whether tempID is registered and not yet resolved.
func (r *Resolver) Pending(tempID string) bool {
	v, ok := r.pending[tempID]
	return ok && v == ""
}

// Dedupe reports whether the candidate's canonical id is already represented
// in the timeline, either directly or through a resolved temp entry. The
// caller discards the candidate when true.
func (r *Resolver) Dedupe(candidate models.Message) bool {
	return r.store.Has(candidate.ID)
}
