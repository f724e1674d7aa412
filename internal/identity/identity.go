// Package identity models the caller of an operation as a closed set of
// variants. Consumers switch on the concrete type; there is no shared
// "user" type to inspect at runtime.
package identity

import (
	"context"
	"strconv"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
)

// Identity is one of Anonymous, Student, Teacher or Admin.
type Identity interface {
	Role() string
	isIdentity()
}

const (
	RoleAnonymous = ""
	RoleStudent   = "student"
	RoleTeacher   = "teacher"
	RoleAdmin     = "admin"
)

type Anonymous struct{}

type Student struct{ ID int64 }

type Teacher struct{ ID int64 }

type Admin struct{ ID int64 }

func (Anonymous) Role() string { return RoleAnonymous }
func (Student) Role() string   { return RoleStudent }
func (Teacher) Role() string   { return RoleTeacher }
func (Admin) Role() string     { return RoleAdmin }

func (Anonymous) isIdentity() {}
func (Student) isIdentity()   {}
func (Teacher) isIdentity()   {}
func (Admin) isIdentity()     {}

// FromClaims builds an identity from a token subject and role. Unknown roles
// and malformed subjects yield Anonymous.
func FromClaims(sub, role string) Identity {
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return Anonymous{}
	}
	switch role {
	case RoleStudent:
		return Student{ID: id}
	case RoleTeacher:
		return Teacher{ID: id}
	case RoleAdmin:
		return Admin{ID: id}
	default:
		return Anonymous{}
	}
}

// StudentID returns the caller's student id or an Unauthorized error.
func StudentID(who Identity) (int64, error) {
	if s, ok := who.(Student); ok {
		return s.ID, nil
	}
	return 0, apperr.Unauthorized("caller is not a student")
}

// TeacherID returns the caller's teacher id or an Unauthorized error.
func TeacherID(who Identity) (int64, error) {
	if t, ok := who.(Teacher); ok {
		return t.ID, nil
	}
	return 0, apperr.Unauthorized("caller is not a teacher")
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, who Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, who)
}

// FromContext returns the caller attached by the auth middleware, or Anonymous.
func FromContext(ctx context.Context) Identity {
	if v, ok := ctx.Value(ctxKey{}).(Identity); ok && v != nil {
		return v
	}
	return Anonymous{}
}
