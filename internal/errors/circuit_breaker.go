package errors

import (
	"errors"
	"sync"
	"time"
)

// Breaker tuning. Half of the sampled calls failing trips the breaker;
// after the cooldown a handful of probe calls decide whether it closes
// again.
const (
	breakerFailureRatio = 0.5
	breakerMinSamples   = 10
	breakerCooldown     = 30 * time.Second
	breakerProbeLimit   = 3
)

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

var (
	// ErrCircuitOpen indicates the provider breaker rejected the call outright.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	errProbeBudgetSpent = errors.New("half-open probe budget spent")
)

// CircuitBreaker shields the identity provider from hammering while it is
// failing. Closed trips to open once the failure ratio over a minimum
// sample crosses the threshold; open admits nothing until the cooldown
// passes, then a few half-open probes either close it or trip it again.
type CircuitBreaker struct {
	mu       sync.Mutex
	state    BreakerState
	tally    callTally
	openedAt time.Time
	cooldown time.Duration
}

type callTally struct {
	failures  int
	successes int
	total     int
}

func (t *callTally) record(failed bool) {
	t.total++
	if failed {
		t.failures++
	} else {
		t.successes++
	}
}

func (t *callTally) failureRatio() float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.failures) / float64(t.total)
}

func NewCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{
		state:    BreakerClosed,
		cooldown: breakerCooldown,
	}
}

// Call runs fn unless the breaker is open. The callErr is always returned
// as-is so callers keep their own error mapping.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if fn == nil {
		return nil
	}

	if err := cb.admit(); err != nil {
		return err
	}

	callErr := fn()
	cb.observe(callErr)

	return callErr
}

func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == BreakerOpen {
		if time.Since(cb.openedAt) < cb.cooldown {
			return ErrCircuitOpen
		}
		cb.state = BreakerHalfOpen
		cb.tally = callTally{}
	}

	if cb.state == BreakerHalfOpen && cb.tally.total >= breakerProbeLimit {
		return errProbeBudgetSpent
	}

	return nil
}

func (cb *CircuitBreaker) observe(callErr error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.tally.record(callErr != nil)

	switch cb.state {
	case BreakerHalfOpen:
		// any probe failure re-opens; enough clean probes close
		if callErr != nil {
			cb.trip()
		} else if cb.tally.successes >= breakerProbeLimit {
			cb.state = BreakerClosed
			cb.tally = callTally{}
		}
	case BreakerClosed:
		if callErr != nil && cb.tally.total >= breakerMinSamples &&
			cb.tally.failureRatio() >= breakerFailureRatio {
			cb.trip()
		}
	}
}

func (cb *CircuitBreaker) trip() {
	cb.state = BreakerOpen
	cb.openedAt = time.Now()
}
