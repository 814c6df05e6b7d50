package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries the HTTP status a handler should respond with. Services
// return it for conditions the route contract distinguishes; everything
// else stays a plain wrapped error and maps to 500.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(code string, err error) *Error {
	return New(http.StatusBadRequest, code, err)
}

func Unauthorized(code string, err error) *Error {
	return New(http.StatusUnauthorized, code, err)
}

func NotFound(code string, err error) *Error {
	return New(http.StatusNotFound, code, err)
}

// Upstream marks a failure of an external collaborator (payment gateway,
// media host) that the caller should not retry blindly.
func Upstream(code string, err error) *Error {
	return New(http.StatusBadGateway, code, err)
}

// StatusOf resolves the response status for err, defaulting to 500.
func StatusOf(err error) (int, string) {
	var ae *Error
	if errors.As(err, &ae) {
		code := ae.Code
		if code == "" {
			code = "error"
		}
		return ae.Status, code
	}
	return http.StatusInternalServerError, "internal_error"
}
