package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cookai-labs/sessiond/internal/accounts"
	"github.com/cookai-labs/sessiond/internal/domain"
)

const minPasswordLength = 8

// PasswordBackend authenticates against the accounts repository using
// bcrypt-hashed passwords.
type PasswordBackend struct {
	repo accounts.Repository
	now  func() time.Time
}

var _ Backend = (*PasswordBackend)(nil)

// NewPasswordBackend constructs a password backend over the given
// repository. now may be nil, in which case time.Now is used.
func NewPasswordBackend(repo accounts.Repository, now func() time.Time) *PasswordBackend {
	if now == nil {
		now = time.Now
	}

	return &PasswordBackend{
		repo: repo,
		now:  now,
	}
}

// Authenticate verifies the credential pair and returns a session user built
// from the account. Preferences are always absent on a fresh login.
func (b *PasswordBackend) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	account, err := b.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("look up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &domain.User{
		ID:         account.ID,
		Name:       "",
		Username:   localPart(account.Email),
		Email:      account.Email,
		JoinedDate: account.JoinedDate,
	}, nil
}

// Register creates a new account with a hashed password. It deliberately
// does not open a session; first login is a separate step.
func (b *PasswordBackend) Register(ctx context.Context, username, email, password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}

	if existing, err := b.repo.FindByEmail(ctx, email); err == nil && existing != nil {
		return ErrEmailExists
	} else if err != nil && !errors.Is(err, accounts.ErrNotFound) {
		return fmt.Errorf("check existing account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := b.now()
	account := &accounts.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		JoinedDate:   domain.JoinedDateNow(now),
		CreatedAt:    now.UTC(),
	}

	if err := b.repo.Create(ctx, account); err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}
