package httperr

import (
	"errors"
	"net/http"
)

// StatusError is returned by handlers to short-circuit with a specific
// status and message. Any other error becomes a 500.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

func New(status int, code, message string) *StatusError {
	return &StatusError{Status: status, Code: code, Message: message}
}

func Validation(code, message string) *StatusError {
	return New(http.StatusBadRequest, code, message)
}

func NotFoundErr(code, message string) *StatusError {
	return New(http.StatusNotFound, code, message)
}

func UnauthorizedErr(code, message string) *StatusError {
	return New(http.StatusUnauthorized, code, message)
}

func ForbiddenErr(code, message string) *StatusError {
	return New(http.StatusForbidden, code, message)
}

func AsStatus(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
