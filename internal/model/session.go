package model

import "time"

// Session is a server-side session record. The ID is the opaque token handed
// to the browser; the provider tokens never leave the backend.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"-"`
	RefreshToken *string   `json:"-"`
	IDToken      *string   `json:"-"`
	TokenType    string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// Expired reports whether the session expiry has passed at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// TokenSet holds the tokens returned by the provider token endpoint.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}
