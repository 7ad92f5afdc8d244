package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tubehub/user-service/pkg/logger"
)

// RequestLogger writes one structured line per request and stores a logger
// carrying the request id in the request context. It must run after
// echo's RequestID middleware.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			res := c.Response()

			reqLog := base.With().
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_ip", c.RealIP()).
				Logger()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context(), reqLog)))

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is final.
				c.Error(err)
			}

			status := res.Status
			evt := reqLog.Info()
			switch {
			case status >= 500:
				evt = reqLog.Error().Err(err)
			case status >= 400:
				evt = reqLog.Warn()
			}
			evt.Int("status", status).
				Dur("latency", time.Since(start)).
				Int64("bytes_out", res.Size).
				Msg("request completed")
			return nil
		}
	}
}
