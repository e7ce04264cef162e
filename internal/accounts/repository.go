package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotFound indicates no account matches the lookup.
var ErrNotFound = errors.New("account not found")

// Repository defines persistence operations for registered accounts.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, account *Account) error
}

type postgresRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPostgresRepository creates a SQL-backed account repository.
func NewPostgresRepository(db *sql.DB, log *slog.Logger) Repository {
	return &postgresRepository{
		db:  db,
		log: log,
	}
}

// FindByEmail retrieves an account by its email address.
func (r *postgresRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	const query = `
		SELECT id, username, email, password_hash, joined_date, created_at
		FROM accounts
		WHERE email = $1
	`

	row := r.db.QueryRowContext(ctx, query, email)

	var account Account
	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.JoinedDate,
		&account.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		if r.log != nil {
			r.log.Error("failed to fetch account by email", slog.String("email", email), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select account by email: %w", err)
	}

	return &account, nil
}

// Create persists a new account record.
func (r *postgresRepository) Create(ctx context.Context, account *Account) error {
	const query = `
		INSERT INTO accounts (id, username, email, password_hash, joined_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.JoinedDate,
		account.CreatedAt,
	); err != nil {
		if r.log != nil {
			r.log.Error("failed to create account", slog.String("email", account.Email), slog.Any("error", err))
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}
