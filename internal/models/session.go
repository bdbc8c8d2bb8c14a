package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the Postgres fallback record for a bearer token. Only the
// SHA-256 hash of the token is stored.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
