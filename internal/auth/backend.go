// Package auth provides the authentication backends behind the session
// manager: a latency-simulating development backend and a real
// password-based one.
package auth

import (
	"context"
	"errors"

	"github.com/cookai-labs/sessiond/internal/domain"
)

var (
	// ErrInvalidCredentials indicates the email/password pair was rejected.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrWeakPassword indicates the password fails the minimum policy.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrEmailExists indicates signup with an already registered email.
	ErrEmailExists = errors.New("email already registered")
)

// Backend verifies credentials and registers accounts. Authenticate returns
// a fresh User whose preferences are always absent: every login restarts
// onboarding. Register creates the account only; it never opens a session.
type Backend interface {
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	Register(ctx context.Context, username, email, password string) error
}
