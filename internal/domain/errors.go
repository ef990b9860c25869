package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind standardizes domain failure semantics across services.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindCooldown          Kind = "cooldown"
	KindCapacity          Kind = "capacity"
	KindPermission        Kind = "permission"
	KindIllegalTransition Kind = "illegal_transition"
	KindInternal          Kind = "internal"
)

// Error is the canonical domain error wrapper. Boundary layers dispatch
// on Kind; RetryAfter is populated for cooldown failures only.
type Error struct {
	Kind       Kind
	Op         string
	Message    string
	RetryAfter time.Duration
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Kind)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Kind)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// E builds a domain error with explicit kind + operation.
func E(kind Kind, op, message string) error {
	return &Error{Kind: kind, Op: strings.TrimSpace(op), Message: strings.TrimSpace(message)}
}

// CooldownError carries the remaining wait before the pair may retry.
func CooldownError(op string, retryAfter time.Duration) error {
	return &Error{
		Kind:       KindCooldown,
		Op:         strings.TrimSpace(op),
		Message:    fmt.Sprintf("retry allowed in %s", retryAfter.Round(time.Second)),
		RetryAfter: retryAfter,
	}
}

// Wrap annotates an existing error with domain error semantics.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: strings.TrimSpace(op), Message: err.Error(), Cause: err}
}

// IsKind checks whether err (or a wrapped err) carries the given kind.
func IsKind(err error, kind Kind) bool {
	var domErr *Error
	if !errors.As(err, &domErr) {
		return false
	}
	return domErr.Kind == kind
}

// KindOf extracts the domain error kind when available.
func KindOf(err error) Kind {
	var domErr *Error
	if !errors.As(err, &domErr) {
		return ""
	}
	return domErr.Kind
}

// RetryAfterOf extracts the cooldown remainder, zero when absent.
func RetryAfterOf(err error) time.Duration {
	var domErr *Error
	if !errors.As(err, &domErr) {
		return 0
	}
	return domErr.RetryAfter
}
