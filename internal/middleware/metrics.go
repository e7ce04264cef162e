package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cookai-labs/sessiond/pkg/metrics"
)

// Operation measures execution time and status for a session operation
// handler, reporting them to Prometheus.
func Operation(name string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := "ok"
			if err != nil || c.Response().Status >= http.StatusBadRequest {
				status = "error"
			}

			metrics.RecordOperation(name, status, time.Since(start))
			return nil
		}
	}
}
