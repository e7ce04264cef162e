package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cookai-labs/sessiond/pkg/logger"
)

// Correlation assigns each request a correlation ID, honoring one supplied
// by the client, and echoes it on the response.
func Correlation() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			id := req.Header.Get(logger.CorrelationIDHeader)
			if id == "" {
				id = uuid.NewString()
			}

			c.Response().Header().Set(logger.CorrelationIDHeader, id)
			c.SetRequest(req.WithContext(logger.WithCorrelationID(req.Context(), id)))

			return next(c)
		}
	}
}
