package api

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tubehub/user-service/internal/core/domain"
	"github.com/tubehub/user-service/pkg/logger"
)

// ErrorResponse is the error envelope for every failed request. Stack is
// only filled in development.
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
	Success    bool     `json:"success"`
	Stack      string   `json:"stack,omitempty"`
}

// classStatus maps the error classes of the core to HTTP status codes.
var classStatus = []struct {
	class  error
	status int
}{
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrTooManyRequests, http.StatusTooManyRequests},
	{domain.ErrInternal, http.StatusInternalServerError},
}

// storageFaults are storage-layer errors coerced to a bad request.
var storageFaults = []func(error) bool{
	func(err error) bool { return errors.Is(err, primitive.ErrInvalidHex) },
	func(err error) bool {
		var we mongo.WriteException
		return errors.As(err, &we)
	},
}

// NewHTTPErrorHandler renders every error as an ErrorResponse. Unclassified
// errors are logged and reported as a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger, development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := resolveError(err)
		if resp.StatusCode >= http.StatusInternalServerError {
			l := logger.Ctx(c.Request().Context())
			if l.GetLevel() == zerolog.Disabled {
				l = &log
			}
			l.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("request failed")
		}
		if development {
			resp.Stack = fmt.Sprintf("%+v\n%s", err, debug.Stack())
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(resp.StatusCode)
			return
		}
		_ = c.JSON(resp.StatusCode, resp)
	}
}

func resolveError(err error) ErrorResponse {
	resp := ErrorResponse{Errors: []string{}}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		resp.StatusCode = he.Code
		resp.Message = fmt.Sprintf("%v", he.Message)
		return resp
	}

	var de *domain.Error
	if errors.As(err, &de) {
		resp.StatusCode = statusFor(de.Class)
		resp.Message = de.Message
		if de.Details != nil {
			resp.Errors = de.Details
		}
		if resp.StatusCode == http.StatusInternalServerError && de.Message == "" {
			resp.Message = "internal server error"
		}
		return resp
	}

	for _, isFault := range storageFaults {
		if isFault(err) {
			resp.StatusCode = http.StatusBadRequest
			resp.Message = err.Error()
			return resp
		}
	}

	resp.StatusCode = http.StatusInternalServerError
	resp.Message = "internal server error"
	return resp
}

func statusFor(class error) int {
	for _, m := range classStatus {
		if errors.Is(class, m.class) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}
