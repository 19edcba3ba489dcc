package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"budgetshop/internal/core"
	"budgetshop/internal/store"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password
	// so login responses never reveal which one failed.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrSessionExpired is returned for tokens past their expiry. The
	// stale row is deleted on the way out.
	ErrSessionExpired = errors.New("session expired")
)

// dummyHash keeps logins for unknown emails on the same bcrypt code
// path as wrong passwords. The secret is random, so the compare always
// fails.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)

// AuthService manages accounts and bearer sessions.
type AuthService struct {
	store store.Store
	cost  int
}

func NewAuthService(st store.Store, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{store: st, cost: bcryptCost}
}

func (s *AuthService) Register(ctx context.Context, email, name, password string) (core.User, error) {
	u := core.User{
		Email: core.NormalizeEmail(email),
		Name:  strings.TrimSpace(name),
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	if len(password) < 8 {
		return core.User{}, core.ErrPasswordTooWeak
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)

	if err := s.store.CreateUser(ctx, &u); err != nil {
		return core.User{}, err
	}
	slog.InfoContext(ctx, "Registered user", "user_id", u.ID)
	return u, nil
}

// Login verifies credentials and issues a fresh session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (core.Session, core.User, error) {
	u, err := s.store.UserByEmail(ctx, core.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		// Burn a compare so the unknown-email path costs the same.
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return core.Session{}, core.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.Session{}, core.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return core.Session{}, core.User{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	sess := core.Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: now.Add(core.SessionTTL),
		CreatedAt: now,
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return core.Session{}, core.User{}, fmt.Errorf("create session: %w", err)
	}
	slog.InfoContext(ctx, "Logged in user", "user_id", u.ID)
	return sess, u, nil
}

// Authenticate resolves a bearer token to its user. Expired sessions
// are deleted eagerly instead of waiting for the sweep.
func (s *AuthService) Authenticate(ctx context.Context, token string) (core.User, error) {
	sess, err := s.store.SessionByToken(ctx, token)
	if err != nil {
		return core.User{}, err
	}
	if sess.Expired(time.Now()) {
		if derr := s.store.DeleteSession(ctx, sess.Token); derr != nil && !errors.Is(derr, store.ErrNotFound) {
			slog.WarnContext(ctx, "Failed to delete expired session", "error", derr)
		}
		return core.User{}, ErrSessionExpired
	}
	return s.store.UserByID(ctx, sess.UserID)
}

// Logout revokes a session. Unknown tokens are not an error, logout is
// idempotent.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	err := s.store.DeleteSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// SweepExpiredSessions removes sessions past their expiry and returns
// how many were dropped.
func (s *AuthService) SweepExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return s.store.DeleteExpiredSessions(ctx, now)
}
