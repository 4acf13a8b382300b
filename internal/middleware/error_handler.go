package middleware

import (
	"net/http"

	"github.com/KobaKhit/rebelzapp/internal/dto"
	"github.com/labstack/echo/v4"
)

// ErrorHandler renders every unhandled error as a dto.ErrorResponse so the
// API has a single error shape.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}

	_ = c.JSON(code, dto.ErrorResponse{Message: msg})
}
