package middleware

import (
	"errors"
	"net/http"
	"time"

	"approv-backend/internal/metrics"

	"github.com/labstack/echo/v4"
)

// Metrics records request counts and latency by route pattern.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			result := metrics.StatusClass(status)
			metrics.HTTPRequests.WithLabelValues(route, c.Request().Method, result).Inc()
			metrics.HTTPLatency.WithLabelValues(route, c.Request().Method, result).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
