package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLastWriteWins(t *testing.T) {
	tr := NewTracker()

	assert.False(t, tr.IsOnline("u1"))
	tr.OnOnline("u1")
	assert.True(t, tr.IsOnline("u1"))
	tr.OnOffline("u1")
	assert.False(t, tr.IsOnline("u1"))
	tr.OnOnline("u1")
	assert.True(t, tr.IsOnline("u1"))
}

func TestLastUpdated(t *testing.T) {
	tr := NewTracker()
	assert.True(t, tr.LastUpdated("u1").IsZero())
	tr.OnOnline("u1")
	assert.False(t, tr.LastUpdated("u1").IsZero())
}

func TestForget(t *testing.T) {
	tr := NewTracker()
	tr.OnOnline("u1")
	tr.Forget("u1")
	assert.False(t, tr.IsOnline("u1"))
	assert.True(t, tr.LastUpdated("u1").IsZero())
}
