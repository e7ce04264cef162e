// Package accounts stores registered CookAI accounts for the password
// authentication backend.
package accounts

import "time"

// Account is a registered credential record. It is distinct from
// domain.User: an account exists from signup onward, a User only while a
// session is active.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	JoinedDate   string
	CreatedAt    time.Time
}
