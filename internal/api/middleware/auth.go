package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tubehub/user-service/internal/api/metrics"
	"github.com/tubehub/user-service/internal/core/domain"
	"github.com/tubehub/user-service/internal/core/ports"
)

const accessTokenCookie = "accessToken"

// Auth resolves the access token to a user and stores it in the request
// context. The token comes from the accessToken cookie, then from the
// Authorization header, raw or with a Bearer prefix.
func Auth(authn ports.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := authn.Authenticate(c.Request().Context(), accessToken(c))
			if err != nil {
				metrics.AuthOperationsTotal.WithLabelValues("authenticate", metrics.Result(err)).Inc()
				return err
			}

			req := c.Request()
			c.SetRequest(req.WithContext(domain.WithUser(req.Context(), user)))
			return next(c)
		}
	}
}

func accessToken(c echo.Context) string {
	if ck, err := c.Cookie(accessTokenCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
