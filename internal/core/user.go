package core

import (
	"strings"
	"time"
)

// SessionTTL is how long an issued session token stays valid.
const SessionTTL = 30 * 24 * time.Hour

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // never serialized
	CreatedAt    time.Time `json:"created_at"`
}

type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidEmail    error = ValidationError("invalid email")
	ErrPasswordTooWeak error = ValidationError("password must be at least 8 characters")
)

// NormalizeEmail lowercases and trims an address before storage or lookup.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (u User) Validate() error {
	email := NormalizeEmail(u.Email)
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return ErrInvalidEmail
	}
	if len(email) > 254 {
		return ErrInvalidEmail
	}
	if len(strings.TrimSpace(u.Name)) == 0 {
		return ErrEmptyName
	}
	if len(u.Name) > 80 {
		return invalid("name too long (max 80 characters)")
	}
	return nil
}

// Expired reports whether the session is past its expiry at the given instant.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
