package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns the request validator installed on the echo server.
func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i interface{}) error {
	if err := cv.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// bindAndValidate decodes the request body into dst and validates it.  On
// failure it has already written a 400 response and returns false.
func bindAndValidate(c echo.Context, dst interface{}) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_body"})
	}
	if err := c.Validate(dst); err != nil {
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			if s, ok := he.Message.(string); ok {
				msg = s
			}
		}
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": msg})
	}
	return true, nil
}
