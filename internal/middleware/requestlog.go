package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/logger"
)

// RequestLogger assigns a request id (reusing X-Request-ID when the client
// sent one), exposes it in the response and logs one line per request.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = logger.NewRequestID()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			c.SetRequest(req.WithContext(logger.ContextWithRequestID(req.Context(), id)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			log := logger.WithContext(c.Request().Context())
			attrs := []any{
				"method", req.Method,
				"route", c.Path(),
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", c.RealIP(),
			}
			switch {
			case status >= 500:
				log.Error("request", attrs...)
			case status >= 400:
				log.Warn("request", attrs...)
			default:
				log.Info("request", attrs...)
			}
			return nil
		}
	}
}
