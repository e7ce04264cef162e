// Package identity abstracts the external OAuth identity provider used as an
// alternative to password login.
package identity

import (
	"context"
	"errors"
)

// Failure kinds surfaced by a provider exchange. Each maps to a distinct
// user-facing notification.
var (
	// ErrUnauthorizedOrigin indicates the calling origin or domain is not
	// registered with the provider.
	ErrUnauthorizedOrigin = errors.New("identity provider: unauthorized origin")
	// ErrExchangeCancelled indicates the user dismissed the consent prompt.
	ErrExchangeCancelled = errors.New("identity provider: exchange cancelled by user")
	// ErrExchangeInFlight indicates a second exchange was requested while one
	// was already pending.
	ErrExchangeInFlight = errors.New("identity provider: exchange already in flight")
	// ErrExchangeUnavailable indicates the interactive exchange could not be
	// started at all, e.g. the popup was blocked.
	ErrExchangeUnavailable = errors.New("identity provider: exchange unavailable")
)

// Claims holds the subset of provider claims the session service consumes.
type Claims struct {
	Subject string
	Name    string
	Email   string
	Picture string
}

// Provider performs the interactive token exchange and returns the verified
// claims of the signed-in subject.
type Provider interface {
	Exchange(ctx context.Context) (*Claims, error)
}

// FailureKind classifies a provider error into a stable label used for
// notification lookup and metrics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorizedOrigin):
		return "unauthorized_origin"
	case errors.Is(err, ErrExchangeCancelled):
		return "cancelled"
	case errors.Is(err, ErrExchangeInFlight):
		return "duplicate_request"
	case errors.Is(err, ErrExchangeUnavailable):
		return "unavailable"
	default:
		return "unknown"
	}
}
