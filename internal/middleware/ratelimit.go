package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cookai-labs/sessiond/internal/ratelimit"
)

// RateLimit enforces per-client limits on the authentication endpoints.
type RateLimit struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
}

// NewRateLimit constructs a rate-limit middleware component.
func NewRateLimit(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimit {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimit{
		limiter: limiter,
		rules:   rules,
		log:     log,
	}
}

// ForOperation returns a middleware that limits the named operation per
// client address. Limiter failures fail open so a Redis outage does not
// lock out sign-in.
func (m *RateLimit) ForOperation(operation string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m.limiter == nil || m.rules == nil {
				return next(c)
			}

			limit, window, err := m.rules.OperationLimit(operation)
			if err != nil {
				m.log.Error("failed to load rate limit rule",
					slog.String("operation", operation),
					slog.Any("error", err))
				return next(c)
			}

			key := operation + ":" + c.RealIP()
			result, err := m.limiter.Check(c.Request().Context(), key, limit, window)
			if err != nil && !errors.Is(err, ratelimit.ErrLimitExceeded) {
				m.log.Warn("rate limiter error",
					slog.String("operation", operation),
					slog.Any("error", err))
				return next(c)
			}

			if result == nil || !result.Allowed {
				m.log.Warn("rate limit exceeded",
					slog.String("operation", operation),
					slog.String("client", c.RealIP()))

				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error": "rate limit exceeded, try again later",
				})
			}

			return next(c)
		}
	}
}
