package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/tubehub/user-service/docs"
	"github.com/tubehub/user-service/internal/api/handler"
	"github.com/tubehub/user-service/internal/api/middleware"
	"github.com/tubehub/user-service/internal/core/ports"
)

const (
	bodyLimit  = "10M"
	staticRoot = "public"
)

// Deps are the services and settings the router mounts.
type Deps struct {
	Sessions      ports.SessionService
	Accounts      ports.AccountService
	Channels      ports.ChannelService
	Authenticator ports.Authenticator
	HealthChecks  map[string]handler.Check
	Log           zerolog.Logger
	Development   bool
	Production    bool
	CORSOrigin    string
	AuthRate      float64
	AuthBurst     int
}

// NewRouter builds the Echo instance with every route registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, d.Development)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:          "users",
		StatusCodeResolver: metricsStatus,
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{d.CORSOrigin},
		AllowCredentials: true,
	}))

	// --- Probes, metrics and docs (no auth required) ---
	health := handler.NewHealthHandler(d.HealthChecks)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.Static("/", staticRoot)

	sessions := handler.NewSessionHandler(d.Sessions, d.Production)
	accounts := handler.NewAccountHandler(d.Accounts)
	channels := handler.NewChannelHandler(d.Channels)
	auth := middleware.Auth(d.Authenticator)
	limit := middleware.RateLimit(middleware.NewIPRateLimiter(d.AuthRate, d.AuthBurst))

	// --- Users ---
	users := e.Group("/api/v1/users")
	users.POST("/register", sessions.Register, limit)
	users.POST("/login", sessions.Login, limit)
	users.POST("/refresh-token", sessions.Refresh, limit)

	secured := users.Group("", auth)
	secured.POST("/logout", sessions.Logout)
	secured.POST("/change-password", sessions.ChangePassword)
	secured.GET("/current-user", accounts.CurrentUser)
	secured.PATCH("/update-account", accounts.UpdateAccount)
	secured.PATCH("/avatar", accounts.UpdateAvatar)
	secured.PATCH("/cover-image", accounts.UpdateCoverImage)
	secured.GET("/c/:username", channels.Profile)
	secured.GET("/history", channels.History)

	return e
}

// metricsStatus labels a request with the status the error handler will
// write. It runs before RequestLogger hands the error to the error handler.
func metricsStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	return resolveError(err).StatusCode
}
