package handler

import (
	"github.com/labstack/echo/v4"
)

// Response is the success envelope shared by every endpoint.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respond(c echo.Context, code int, data any, message string) error {
	return c.JSON(code, Response{
		StatusCode: code,
		Data:       data,
		Message:    message,
		Success:    code < 400,
	})
}
