package services

import (
	"errors"
	"fmt"

	"go-restaurant-pos/database"
)

type Kind string

const (
	KindNotFound          Kind = "NotFound"
	KindConflict          Kind = "Conflict"
	KindInvalidTransition Kind = "InvalidTransition"
	KindInvalidRequest    Kind = "InvalidRequest"
	KindInsufficientStock Kind = "InsufficientStock"
	KindForbidden         Kind = "Forbidden"
	KindPaymentDeclined   Kind = "PaymentDeclined"
)

// Error is what every coordinator operation returns for a business failure.
// Anything that is not an *Error is an infrastructure failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches against the Err* sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Kind == e.Kind
}

// Retryable reports whether the same request may succeed later. A Conflict
// can come from a race the client lost.
func (e *Error) Retryable() bool {
	return e.Kind == KindConflict
}

var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrInvalidRequest    = &Error{Kind: KindInvalidRequest}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrPaymentDeclined   = &Error{Kind: KindPaymentDeclined}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a business error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// storeError translates store sentinels into business errors. Unknown errors
// pass through wrapped with the action that failed.
func storeError(err error, action string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, database.ErrNotFound):
		return &Error{Kind: KindNotFound, Msg: action, Err: err}
	case errors.Is(err, database.ErrDuplicate), errors.Is(err, database.ErrStale):
		return &Error{Kind: KindConflict, Msg: action, Err: err}
	case errors.Is(err, database.ErrInsufficient):
		return &Error{Kind: KindInsufficientStock, Msg: action, Err: err}
	}
	return fmt.Errorf("%s: %w", action, err)
}
