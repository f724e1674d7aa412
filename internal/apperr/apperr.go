// Package apperr carries the error taxonomy shared by the course, grading,
// progress and certificate packages. Handlers map Kind to a status code.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindUnauthorized  Kind = "unauthorized"
	KindInvalidState  Kind = "invalid_state"
	KindAlreadyExists Kind = "already_exists"
	KindNotCompleted  Kind = "not_completed"
	KindInvalid       Kind = "invalid"
)

// Error is a classified failure. ID names the offending entity when there is one.
type Error struct {
	Kind Kind
	Msg  string
	ID   string
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Msg, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

func NotFound(entity string, id any) *Error {
	return &Error{Kind: KindNotFound, Msg: entity + " not found", ID: fmt.Sprint(id)}
}

func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Msg: msg} }

func InvalidState(msg string, id any) *Error {
	e := &Error{Kind: KindInvalidState, Msg: msg}
	if id != nil {
		e.ID = fmt.Sprint(id)
	}
	return e
}

func AlreadyExists(msg string, id any) *Error {
	return &Error{Kind: KindAlreadyExists, Msg: msg, ID: fmt.Sprint(id)}
}

func NotCompleted(courseID any) *Error {
	return &Error{Kind: KindNotCompleted, Msg: "course is not completed", ID: fmt.Sprint(courseID)}
}

func Invalid(msg string) *Error { return &Error{Kind: KindInvalid, Msg: msg} }

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool { return KindOf(err) == kind }
