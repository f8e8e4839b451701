package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/chat-client/internal/models"
)

func msg(id, sender string, at time.Time) models.Message {
	return models.Message{
		ID:             id,
		ConversationID: "c1",
		SenderID:       sender,
		Content:        "m-" + id,
		Status:         models.StatusDelivered,
		CreatedAt:      at,
	}
}

func ids(ms []models.Message) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func TestAppendKeepsSortedOrder(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewStore()
	s.Append(msg("m1", "a", base))
	s.Append(msg("m3", "a", base.Add(2*time.Minute)))
	// late out-of-order arrival lands between its neighbours
	s.Append(msg("m2", "b", base.Add(time.Minute)))

	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(s.All()))
}

func TestAppendDuplicateIDIgnored(t *testing.T) {
	base := time.Now()
	s := NewStore()
	s.Append(msg("m1", "a", base))
	s.Append(msg("m1", "a", base.Add(time.Hour)))

	assert.Equal(t, 1, s.Len())
}

func TestAppendEqualTimestampsKeepArrivalOrder(t *testing.T) {
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewStore()
	s.Append(msg("first", "a", at))
	s.Append(msg("second", "a", at))

	assert.Equal(t, []string{"first", "second"}, ids(s.All()))
}

func TestReplacePreservesPosition(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewStore()
	s.Append(msg("m1", "a", base))
	s.Append(msg("temp-x", "me", base.Add(time.Minute)))
	s.Append(msg("m3", "a", base.Add(2*time.Minute)))

	canonical := msg("srv-42", "me", base.Add(90*time.Second))
	require.True(t, s.Replace("temp-x", canonical))

	assert.Equal(t, []string{"m1", "srv-42", "m3"}, ids(s.All()))
	assert.False(t, s.Has("temp-x"))
	got, ok := s.Get("srv-42")
	require.True(t, ok)
	assert.Equal(t, "me", got.SenderID)
}

func TestReplaceUnknownID(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Replace("nope", msg("m1", "a", time.Now())))
}

func TestRemoveReindexes(t *testing.T) {
	base := time.Now()
	s := NewStore()
	s.Append(msg("m1", "a", base))
	s.Append(msg("m2", "a", base.Add(time.Second)))
	s.Append(msg("m3", "a", base.Add(2*time.Second)))

	s.Remove("m2")
	assert.Equal(t, []string{"m1", "m3"}, ids(s.All()))
	got, ok := s.Get("m3")
	require.True(t, ok)
	assert.Equal(t, "m3", got.ID)
}

func TestUpgradeStatusIsMonotonic(t *testing.T) {
	s := NewStore()
	m := msg("m1", "me", time.Now())
	m.Status = models.StatusSending
	s.Append(m)

	assert.True(t, s.UpgradeStatus("m1", models.StatusSent))
	assert.True(t, s.UpgradeStatus("m1", models.StatusRead))
	// downgrades and repeats are no-ops
	assert.False(t, s.UpgradeStatus("m1", models.StatusDelivered))
	assert.False(t, s.UpgradeStatus("m1", models.StatusRead))

	got, _ := s.Get("m1")
	assert.Equal(t, models.StatusRead, got.Status)
}

func TestMarkReadBySender(t *testing.T) {
	base := time.Now()
	s := NewStore()
	own := msg("m1", "me", base)
	own.Status = models.StatusSent
	s.Append(own)
	own2 := msg("m2", "me", base.Add(time.Second))
	own2.Status = models.StatusRead
	s.Append(own2)
	s.Append(msg("m3", "peer", base.Add(2*time.Second)))

	assert.Equal(t, 1, s.MarkReadBySender("me"))
	got, _ := s.Get("m1")
	assert.Equal(t, models.StatusRead, got.Status)
	// peer's message untouched
	got, _ = s.Get("m3")
	assert.Equal(t, models.StatusDelivered, got.Status)
	// second receipt is a no-op
	assert.Equal(t, 0, s.MarkReadBySender("me"))
}
