package apperror

import (
	"errors"
	"strings"
)

// Kind classifies an error for callers that need to react to it (HTTP mapping, retries).
type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInvalidState Kind = "invalid_state"
	KindStorage      Kind = "storage_error"
	KindRateLimited  Kind = "rate_limited"
)

// Kind sentinels, usable with errors.Is on any *Error of the same kind.
var (
	ErrValidation   = &Error{Kind: KindValidation, Code: string(KindValidation)}
	ErrNotFound     = &Error{Kind: KindNotFound, Code: string(KindNotFound)}
	ErrConflict     = &Error{Kind: KindConflict, Code: string(KindConflict)}
	ErrInvalidState = &Error{Kind: KindInvalidState, Code: string(KindInvalidState)}
	ErrStorage      = &Error{Kind: KindStorage, Code: string(KindStorage)}
	ErrRateLimited  = &Error{Kind: KindRateLimited, Code: string(KindRateLimited)}
)

type Error struct {
	Kind    Kind
	Code    string
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Code
	if e.Message != "" {
		msg = e.Message
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches kind sentinels (Code equal to the kind) by kind and
// everything else by kind and code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil || e == nil {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Code == string(t.Kind) {
		return true
	}
	return t.Code == e.Code
}

func New(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code}
}

// Validation returns a field-level validation error. The field defaults to the
// code without its "invalid_" prefix.
func Validation(code string) *Error {
	return &Error{
		Kind:  KindValidation,
		Code:  code,
		Field: strings.TrimPrefix(code, "invalid_"),
	}
}

func NotFound(code string) *Error {
	return New(KindNotFound, code)
}

func Conflict(code string) *Error {
	return New(KindConflict, code)
}

func InvalidState(code string) *Error {
	return New(KindInvalidState, code)
}

// Storage wraps a failure of the persistence layer or the blob store.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Kind: KindStorage, Code: "storage_error", Message: op, Err: err}
}

// KindOf reports the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var vErrs *ValidationErrors
	if errors.As(err, &vErrs) {
		return KindValidation
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
