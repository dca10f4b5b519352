// Package service implements the room booking core: the room catalog,
// conflict detection, the booking lifecycle, the approval workflow, the
// audit trail and read-side queries.  Handlers call it with an opaque
// model.Actor; persistence goes through repository.Store.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/room-booking/internal/repository"
)

// Kind classifies a domain failure.  Every kind maps to one stable error
// code reported to clients.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConflict      Kind = "conflict"
	KindNotFound      Kind = "not_found"
	KindAuthorization Kind = "authorization"
	KindState         Kind = "state"
)

// Error is a domain failure with a human readable reason.  All domain
// errors are detected before anything is written.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Is lets errors.Is match an *Error against the kind sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Reason == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.  They carry no reason.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrForbidden  = &Error{Kind: KindAuthorization}
	ErrState      = &Error{Kind: KindState}
)

func validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Reason: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Reason: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Reason: fmt.Sprintf(format, args...)}
}

func forbiddenf(format string, args ...any) error {
	return &Error{Kind: KindAuthorization, Reason: fmt.Sprintf(format, args...)}
}

func statef(format string, args ...any) error {
	return &Error{Kind: KindState, Reason: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a domain error and false for anything else,
// including infrastructure failures.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// ReasonOf returns the reason of a domain error or a generic message.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return "internal error"
}

// translateStoreErr converts repository sentinels into domain errors.
// Infrastructure errors are wrapped with op and returned as is.
func translateStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, repository.ErrRoomNotFound):
		return notFoundf("room not found")
	case errors.Is(err, repository.ErrBookingNotFound):
		return notFoundf("booking not found")
	case errors.Is(err, repository.ErrConflict):
		return conflictf("concurrent update on the same room, retry")
	}
	return fmt.Errorf("%s: %w", op, err)
}
