// Package memory provides in-memory store implementations used in dev mode
// and in tests. All stores are safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ocralab/ocra/internal/model"
	"github.com/ocralab/ocra/internal/store"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[string]model.User // keyed by subject
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]model.User)}
}

func (s *UserStore) UpsertBySubject(_ context.Context, user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.users[user.Subject]; ok {
		existing.Email = user.Email
		existing.DisplayName = user.DisplayName
		existing.UpdatedAt = now
		s.users[user.Subject] = existing
		return &existing, nil
	}

	u := *user
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.Subject] = u
	return &u, nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			out := u
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *UserStore) GetBySubject(_ context.Context, subject string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[subject]; ok {
		out := u
		return &out, nil
	}
	return nil, store.ErrNotFound
}

type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]model.Session)}
}

func (s *SessionStore) Create(_ context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := *session
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}
	s.sessions[sess.ID] = sess
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[id]; ok {
		out := sess
		return &out, nil
	}
	return nil, store.ErrNotFound
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *SessionStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for id, sess := range s.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

type AuditStore struct {
	mu     sync.RWMutex
	events []model.AuthEvent
}

func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

func (s *AuditStore) Insert(_ context.Context, event *model.AuthEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := *event
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	s.events = append(s.events, e)
	return nil
}

func (s *AuditStore) List(_ context.Context, filter store.AuditFilter) ([]model.AuthEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.AuthEvent
	for _, e := range s.events {
		if filter.Subject != "" && e.Subject != filter.Subject {
			continue
		}
		if filter.EventType != "" && e.EventType != filter.EventType {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
