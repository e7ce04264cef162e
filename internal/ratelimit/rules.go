package ratelimit

import (
	"errors"
	"time"

	"github.com/cookai-labs/sessiond/pkg/config"
)

// Rules encapsulates the configured per-operation rate limits.
type Rules struct {
	config config.RateLimitConfig
}

// NewRules constructs rate limiting rules from configuration settings.
func NewRules(cfg config.RateLimitConfig) *Rules {
	return &Rules{config: cfg}
}

// OperationLimit returns the limit and window for an auth operation.
func (r *Rules) OperationLimit(operation string) (int, time.Duration, error) {
	switch operation {
	case "login":
		return parseRule(r.config.Login)
	case "login_google":
		return parseRule(r.config.Provider)
	case "signup":
		return parseRule(r.config.Signup)
	default:
		return 0, 0, errors.New("unsupported operation")
	}
}

func parseRule(rule config.RateLimitRule) (int, time.Duration, error) {
	if rule.Window == "" {
		return rule.Limit, 0, errors.New("window duration is not set")
	}

	window, err := time.ParseDuration(rule.Window)
	if err != nil {
		return 0, 0, err
	}

	return rule.Limit, window, nil
}
