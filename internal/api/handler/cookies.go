package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tubehub/user-service/internal/core/domain"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

func setSessionCookies(c echo.Context, pair domain.TokenPair) {
	c.SetCookie(sessionCookie(AccessTokenCookie, pair.AccessToken, true))
	c.SetCookie(sessionCookie(RefreshTokenCookie, pair.RefreshToken, true))
}

// clearSessionCookies expires both cookies. They are marked secure only in
// production so logout also works over plain HTTP in development.
func clearSessionCookies(c echo.Context, secure bool) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		ck := sessionCookie(name, "", secure)
		ck.MaxAge = -1
		c.SetCookie(ck)
	}
}

func sessionCookie(name, value string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
