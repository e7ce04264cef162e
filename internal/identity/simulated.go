package identity

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SimulatedProvider stands in for the Google OAuth popup exchange during
// development. It suspends for the configured latency and then fabricates
// claims for a random Gmail-style account, mirroring what the hosted
// provider returns.
type SimulatedProvider struct {
	latency time.Duration

	mu       sync.Mutex
	inFlight bool
}

var _ Provider = (*SimulatedProvider)(nil)

// NewSimulatedProvider constructs a provider with the given exchange latency.
func NewSimulatedProvider(latency time.Duration) *SimulatedProvider {
	return &SimulatedProvider{latency: latency}
}

// Exchange simulates the interactive consent flow. A second concurrent call
// fails with ErrExchangeInFlight the way a real popup SDK rejects a
// duplicate request.
func (p *SimulatedProvider) Exchange(ctx context.Context) (*Claims, error) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return nil, ErrExchangeInFlight
	}
	p.inFlight = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight = false
		p.mu.Unlock()
	}()

	if p.latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ErrExchangeCancelled
		case <-time.After(p.latency):
		}
	}

	email := fmt.Sprintf("user%d@gmail.com", rand.Intn(1000))
	return &Claims{
		Subject: "google-" + uuid.NewString(),
		Email:   email,
		Picture: "",
	}, nil
}
