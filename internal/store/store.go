// Package store defines the persistence interfaces for users, sessions, and
// audit events. The postgres package implements them against pgx; the memory
// package backs dev mode and tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ocralab/ocra/internal/model"
)

// ErrNotFound is returned when a record does not exist. Expired sessions are
// surfaced through the same error by the session service, so callers cannot
// tell the two cases apart.
var ErrNotFound = errors.New("not found")

type UserStore interface {
	// UpsertBySubject inserts or updates a user keyed by provider subject
	// and returns the stored row.
	UpsertBySubject(ctx context.Context, user *model.User) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetBySubject(ctx context.Context, subject string) (*model.User, error)
}

type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	// Get returns the raw record even when expired; expiry policy lives in
	// the session service.
	Get(ctx context.Context, id string) (*model.Session, error)
	// Delete is idempotent; deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes every session with expires_at <= now in one
	// operation and returns the number removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuditFilter narrows audit event listings.
type AuditFilter struct {
	Subject   string
	EventType string
	Limit     int
}

type AuditStore interface {
	Insert(ctx context.Context, event *model.AuthEvent) error
	// List returns events matching the filter, newest first.
	List(ctx context.Context, filter AuditFilter) ([]model.AuthEvent, error)
}
