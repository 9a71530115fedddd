package model

import "time"

// Auth event types.
const (
	EventLogin  = "login"
	EventLogout = "logout"
)

// AuthEvent is an append-only login/logout audit record. Subject is stored as
// a plain string rather than a user foreign key so failed logins can be
// recorded before a user row exists.
type AuthEvent struct {
	ID           string    `json:"id"`
	Subject      string    `json:"sub"`
	EventType    string    `json:"event_type"`
	Success      bool      `json:"success"`
	UserAgent    string    `json:"user_agent"`
	SessionID    *string   `json:"session_id,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
