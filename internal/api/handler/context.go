package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/tubehub/user-service/internal/core/domain"
)

// currentUser returns the identity attached by the Auth middleware. Its
// absence means the route was mounted without the middleware.
func currentUser(c echo.Context) (*domain.User, error) {
	u, ok := domain.UserFromContext(c.Request().Context())
	if !ok {
		return nil, domain.Errorf(domain.ErrUnauthorized, "unauthorized request")
	}
	return u, nil
}
