package core

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ocralab/ocra/internal/store"
)

type Services struct {
	User    *UserService
	Session *SessionService
	Audit   *AuditRecorder
}

func NewServices(users store.UserStore, sessions store.SessionStore, audit store.AuditStore, sessionTTL time.Duration, logger zerolog.Logger) *Services {
	return &Services{
		User:    NewUserService(users),
		Session: NewSessionService(sessions, sessionTTL, logger),
		Audit:   NewAuditRecorder(audit, logger),
	}
}
