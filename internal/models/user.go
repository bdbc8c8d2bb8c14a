package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"uuid"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsActive     bool      `json:"-"`
	IsAdmin      bool      `json:"-"`
	IsEmailFaked bool      `json:"-"`
	TelegramID   *int64    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserRef is the compact user shape embedded in requests, events and
// friend lists.
type UserRef struct {
	ID        uuid.UUID `json:"uuid"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

func (u *User) Ref() UserRef {
	return UserRef{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
}

// CreateExternalUserParams describes a user created from a verified
// external identity assertion. No password, no real email address.
type CreateExternalUserParams struct {
	TelegramID int64
	FirstName  string
	LastName   string
}
