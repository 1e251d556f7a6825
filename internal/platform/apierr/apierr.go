package apierr

import (
	"errors"
	"fmt"
	"net/http"

	perrors "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/errors"
)

// Error carries the HTTP status and a stable machine code for a failure that
// reached the HTTP edge. The core never builds these; handlers classify.
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

func BadRequest(code string, err error) *Error { return New(http.StatusBadRequest, code, err) }
func NotFound(code string, err error) *Error   { return New(http.StatusNotFound, code, err) }
func Conflict(code string, err error) *Error   { return New(http.StatusConflict, code, err) }
func Internal(code string, err error) *Error   { return New(http.StatusInternalServerError, code, err) }

// FromError classifies err by its generic class. An *Error already in the
// chain is returned as is.
func FromError(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, perrors.ErrInvalidArgument):
		return BadRequest("invalid_argument", err)
	case errors.Is(err, perrors.ErrNotFound):
		return NotFound("not_found", err)
	case errors.Is(err, perrors.ErrConflict):
		return Conflict("already_exists", err)
	default:
		return Internal("internal", err)
	}
}
