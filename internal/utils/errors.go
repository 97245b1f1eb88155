package utils

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// AppError carries the HTTP status and machine-readable code for a failure.
// Services declare them as package-level sentinels so callers can use errors.Is.
type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

func BadRequest(code, message string) *AppError {
	return NewAppError(http.StatusBadRequest, code, message)
}

func NotFound(code, message string) *AppError {
	return NewAppError(http.StatusNotFound, code, message)
}

func Conflict(code, message string) *AppError {
	return NewAppError(http.StatusConflict, code, message)
}

var (
	ErrInvalidBody  = BadRequest("INVALID_BODY", "Request body must be valid JSON")
	ErrUnauthorized = NewAppError(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	ErrForbidden    = NewAppError(http.StatusForbidden, "FORBIDDEN", "Not allowed")
)

// WriteErr maps err to its envelope. Anything that is not an AppError is a 500.
func WriteErr(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		WriteError(w, appErr.Status, appErr.Message, appErr.Code)
		return
	}
	WriteInternalError(w, err)
}

// IsClientError reports whether err maps to a 4xx response.
func IsClientError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks struct tags and reports the first failing field as VALIDATION_FAILED.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return BadRequest("VALIDATION_FAILED", fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return BadRequest("VALIDATION_FAILED", err.Error())
}
