package model

import "time"

// User is a local account backed by an identity provider subject. Users are
// upserted by subject on every successful login and never deleted by the
// auth flow.
type User struct {
	ID          string    `json:"id"`
	Subject     string    `json:"sub"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name"`
	IsAdmin     bool      `json:"is_admin"`
	IsCreator   bool      `json:"is_creator"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
