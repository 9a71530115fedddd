package auth

import (
	"sync"
	"time"
)

// pendingLogin binds the state nonce to its code verifier for the duration of
// the authorization round trip.
type pendingLogin struct {
	Verifier  string
	ReturnTo  string
	CreatedAt time.Time
}

// StateStore holds in-flight authorization attempts keyed by state nonce.
// Entries are consumed exactly once: the atomic take in Consume is the
// single-flight guard against duplicate callbacks for the same code.
type StateStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	pending map[string]pendingLogin
}

func NewStateStore(ttl time.Duration) *StateStore {
	return &StateStore{
		ttl:     ttl,
		now:     time.Now,
		pending: make(map[string]pendingLogin),
	}
}

// Put records an in-flight attempt. Stale entries are pruned on every insert
// so abandoned logins do not accumulate.
func (s *StateStore) Put(state, verifier, returnTo string) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, p := range s.pending {
		if now.Sub(p.CreatedAt) > s.ttl {
			delete(s.pending, k)
		}
	}

	s.pending[state] = pendingLogin{
		Verifier:  verifier,
		ReturnTo:  returnTo,
		CreatedAt: now,
	}
}

// Consume removes and returns the attempt for the given state. A second call
// for the same state reports absence, as does an entry older than the TTL.
func (s *StateStore) Consume(state string) (pendingLogin, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[state]
	if !ok {
		return pendingLogin{}, false
	}
	delete(s.pending, state)

	if s.now().Sub(p.CreatedAt) > s.ttl {
		return pendingLogin{}, false
	}
	return p, true
}

// Len reports the number of in-flight attempts.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
