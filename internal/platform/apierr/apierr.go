package apierr

import (
	"net/http"

	"github.com/gradlink/gradlink-backend/internal/domain"
)

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
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromDomain maps a domain error kind onto the HTTP boundary.
func FromDomain(err error) *Error {
	kind := domain.KindOf(err)
	switch kind {
	case domain.KindValidation:
		return New(http.StatusBadRequest, string(kind), err)
	case domain.KindPermission:
		return New(http.StatusForbidden, string(kind), err)
	case domain.KindNotFound:
		return New(http.StatusNotFound, string(kind), err)
	case domain.KindConflict, domain.KindCapacity:
		return New(http.StatusConflict, string(kind), err)
	case domain.KindIllegalTransition:
		return New(http.StatusUnprocessableEntity, string(kind), err)
	case domain.KindCooldown:
		return New(http.StatusTooManyRequests, string(kind), err)
	default:
		return New(http.StatusInternalServerError, "internal", err)
	}
}
