package identity

import (
	"context"
	"testing"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
)

func TestFromClaims(t *testing.T) {
	cases := []struct {
		sub, role string
		want      Identity
	}{
		{"7", "student", Student{ID: 7}},
		{"8", "teacher", Teacher{ID: 8}},
		{"9", "admin", Admin{ID: 9}},
		{"7", "superuser", Anonymous{}},
		{"7", "", Anonymous{}},
		{"abc", "student", Anonymous{}},
		{"", "student", Anonymous{}},
		{"0", "student", Anonymous{}},
		{"-3", "teacher", Anonymous{}},
	}
	for _, tc := range cases {
		if got := FromClaims(tc.sub, tc.role); got != tc.want {
			t.Fatalf("FromClaims(%q, %q) = %#v, want %#v", tc.sub, tc.role, got, tc.want)
		}
	}
}

func TestStudentAndTeacherID(t *testing.T) {
	if id, err := StudentID(Student{ID: 4}); err != nil || id != 4 {
		t.Fatalf("student: %d %v", id, err)
	}
	for _, who := range []Identity{Anonymous{}, Teacher{ID: 4}, Admin{ID: 4}} {
		if _, err := StudentID(who); !apperr.Is(err, apperr.KindUnauthorized) {
			t.Fatalf("StudentID(%#v): want Unauthorized, got %v", who, err)
		}
	}
	if id, err := TeacherID(Teacher{ID: 5}); err != nil || id != 5 {
		t.Fatalf("teacher: %d %v", id, err)
	}
	for _, who := range []Identity{Anonymous{}, Student{ID: 5}, Admin{ID: 5}} {
		if _, err := TeacherID(who); !apperr.Is(err, apperr.KindUnauthorized) {
			t.Fatalf("TeacherID(%#v): want Unauthorized, got %v", who, err)
		}
	}
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := FromContext(ctx).(Anonymous); !ok {
		t.Fatal("empty context should be anonymous")
	}
	if got := FromContext(WithIdentity(ctx, Admin{ID: 1})); got != (Admin{ID: 1}) {
		t.Fatalf("got %#v", got)
	}
}
