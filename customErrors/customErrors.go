package customErrors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	ErrNotFound     = "NOT FOUND"
	ErrInvalidInput = "INVALID INPUT"
	ErrAuth         = "UNAUTHORIZED"
	ErrConflict     = "CONFLICT"
	ErrUnavailable  = "UNAVAILABLE"
	ErrInternal     = "INTERNAL"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ErrorResponse) Error() string {
	return fmt.Sprintf("code: %s, message: %s", e.Code, e.Message)
}

func New(code string, message string) ErrorResponse {
	return ErrorResponse{Code: code, Message: message}
}

// Conflicts answer 400, not 409: clients treat a taken email as bad input.
func HTTPStatus(err error) int {
	var appErr ErrorResponse
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}

	switch appErr.Code {
	case ErrInvalidInput, ErrConflict:
		return http.StatusBadRequest
	case ErrAuth:
		return http.StatusUnauthorized
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage never leaks the text of errors that did not come from this package.
func PublicMessage(err error) string {
	var appErr ErrorResponse
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "Server error"
}

func Is(err error, code string) bool {
	var appErr ErrorResponse
	return errors.As(err, &appErr) && appErr.Code == code
}
