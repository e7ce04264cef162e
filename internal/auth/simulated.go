package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cookai-labs/sessiond/internal/domain"
)

// SimulatedBackend reproduces the development contract of the original
// CookAI client: every login succeeds after a fixed latency with a freshly
// minted user derived from the email, and every signup succeeds without
// creating anything.
type SimulatedBackend struct {
	latency time.Duration
	now     func() time.Time
}

var _ Backend = (*SimulatedBackend)(nil)

// NewSimulatedBackend constructs a backend with the given simulated network
// latency. now may be nil, in which case time.Now is used.
func NewSimulatedBackend(latency time.Duration, now func() time.Time) *SimulatedBackend {
	if now == nil {
		now = time.Now
	}

	return &SimulatedBackend{
		latency: latency,
		now:     now,
	}
}

// Authenticate suspends for the configured latency, then returns a new user.
// The username is the local part of the email and preferences are absent.
func (b *SimulatedBackend) Authenticate(ctx context.Context, email, _ string) (*domain.User, error) {
	if err := b.suspend(ctx); err != nil {
		return nil, err
	}

	return &domain.User{
		ID:         uuid.NewString(),
		Name:       "",
		Username:   localPart(email),
		Email:      email,
		JoinedDate: domain.JoinedDateNow(b.now()),
	}, nil
}

// Register suspends for the configured latency and reports success. No
// account record is created; activation happens on first login.
func (b *SimulatedBackend) Register(ctx context.Context, _, _, _ string) error {
	return b.suspend(ctx)
}

func (b *SimulatedBackend) suspend(ctx context.Context) error {
	if b.latency <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(b.latency):
		return nil
	}
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}

	return email
}
