package identity

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailureKind(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"unauthorized origin", ErrUnauthorizedOrigin, "unauthorized_origin"},
		{"cancelled", ErrExchangeCancelled, "cancelled"},
		{"duplicate", ErrExchangeInFlight, "duplicate_request"},
		{"unavailable", ErrExchangeUnavailable, "unavailable"},
		{"wrapped", errors.Join(errors.New("ctx"), ErrExchangeCancelled), "cancelled"},
		{"unknown", errors.New("boom"), "unknown"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FailureKind(tc.err))
		})
	}
}

func TestSimulatedProviderExchange(t *testing.T) {
	provider := NewSimulatedProvider(0)

	claims, err := provider.Exchange(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, claims.Subject)
	assert.Contains(t, claims.Subject, "google-")
	assert.Contains(t, claims.Email, "@gmail.com")
}

func TestSimulatedProviderRejectsDuplicateExchange(t *testing.T) {
	provider := NewSimulatedProvider(0)

	// Hold the in-flight flag manually to model an unfinished popup.
	provider.mu.Lock()
	provider.inFlight = true
	provider.mu.Unlock()

	_, err := provider.Exchange(context.Background())
	assert.ErrorIs(t, err, ErrExchangeInFlight)
}

func TestSimulatedProviderConcurrentExchangesOneWins(t *testing.T) {
	provider := NewSimulatedProvider(20_000_000) // 20ms

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = provider.Exchange(context.Background())
		}(i)
	}
	wg.Wait()

	var duplicates int
	for _, err := range results {
		if errors.Is(err, ErrExchangeInFlight) {
			duplicates++
		}
	}
	assert.LessOrEqual(t, duplicates, 1)
}
