package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStateStore_ConsumeOnce(t *testing.T) {
	s := NewStateStore(time.Minute)
	s.Put("state-1", "verifier-1", "/projects")

	pending, ok := s.Consume("state-1")
	assert.True(t, ok)
	assert.Equal(t, "verifier-1", pending.Verifier)
	assert.Equal(t, "/projects", pending.ReturnTo)

	_, ok = s.Consume("state-1")
	assert.False(t, ok, "second consume must report absence")
}

func TestStateStore_UnknownState(t *testing.T) {
	s := NewStateStore(time.Minute)

	_, ok := s.Consume("never-stored")
	assert.False(t, ok)
}

func TestStateStore_Expired(t *testing.T) {
	s := NewStateStore(time.Minute)
	s.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	s.Put("state-1", "verifier-1", "")
	s.now = time.Now

	_, ok := s.Consume("state-1")
	assert.False(t, ok, "entry past TTL must not be usable")
}

func TestStateStore_PutPrunesStale(t *testing.T) {
	s := NewStateStore(time.Minute)
	s.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	s.Put("old-1", "v", "")
	s.Put("old-2", "v", "")
	s.now = time.Now

	s.Put("fresh", "v", "")
	assert.Equal(t, 1, s.Len())
}
