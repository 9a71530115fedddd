package core

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ocralab/ocra/internal/model"
	"github.com/ocralab/ocra/internal/store"
)

// SessionService owns the server-side session lifecycle. It is the sole
// source of truth for whether a caller is authenticated.
type SessionService struct {
	sessions store.SessionStore
	ttl      time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

func NewSessionService(sessions store.SessionStore, ttl time.Duration, logger zerolog.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Create stores a new session for the user and returns it. The session id is
// 32 bytes from crypto/rand; expiry is the provider's expires_in capped at
// the configured TTL. The session is resolvable immediately.
func (s *SessionService) Create(ctx context.Context, user *model.User, tokens *model.TokenSet) (*model.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	ttl := s.ttl
	if tokens.ExpiresIn > 0 {
		if providerTTL := time.Duration(tokens.ExpiresIn) * time.Second; providerTTL < ttl {
			ttl = providerTTL
		}
	}

	session := &model.Session{
		ID:          id,
		UserID:      user.ID,
		AccessToken: tokens.AccessToken,
		TokenType:   tokens.TokenType,
		ExpiresAt:   s.now().Add(ttl),
		CreatedAt:   s.now(),
	}
	if tokens.RefreshToken != "" {
		rt := tokens.RefreshToken
		session.RefreshToken = &rt
	}
	if tokens.IDToken != "" {
		it := tokens.IDToken
		session.IDToken = &it
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Resolve returns the session for the id, or store.ErrNotFound for unknown
// and expired ids alike.
func (s *SessionService) Resolve(ctx context.Context, id string) (*model.Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, store.ErrNotFound
	}
	return session, nil
}

// Delete removes the session. Deleting an absent session is not an error.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

// SweepExpired removes all expired sessions in a single operation.
func (s *SessionService) SweepExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

// RunSweeper sweeps expired sessions on the given interval until the context
// is cancelled.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			count, err := s.SweepExpired(ctx)
			if err != nil {
				s.logger.Error().Err(err).Msg("session sweep failed")
				continue
			}
			if count > 0 {
				s.logger.Info().Int64("count", count).Msg("swept expired sessions")
			}
		}
	}
}

func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
