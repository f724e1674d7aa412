// Package coursetest builds course graphs on top of any course.Repository
// for tests.
package coursetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/mind-engage/mindengage-courses/internal/course"
)

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
}

func NewStudent(t testing.TB, r course.Repository, first, last string) int64 {
	t.Helper()
	u := course.User{Email: fmt.Sprintf("%s.%s@example.com", first, last), Role: "student"}
	must(t, r.CreateUser(context.Background(), &u, first, last))
	return u.ID
}

func NewTeacher(t testing.TB, r course.Repository, first, last string) int64 {
	t.Helper()
	u := course.User{Email: fmt.Sprintf("%s.%s@example.com", first, last), Role: "teacher"}
	must(t, r.CreateUser(context.Background(), &u, first, last))
	return u.ID
}

func NewCourse(t testing.TB, r course.Repository, teacherID int64, title string, public bool) course.Course {
	t.Helper()
	c := course.Course{Title: title, Description: title + " course", IsPublic: public, TeacherID: teacherID}
	must(t, r.CreateCourse(context.Background(), &c))
	return c
}

func NewModule(t testing.TB, r course.Repository, courseID int64, title string) course.Module {
	t.Helper()
	m := course.Module{CourseID: courseID, Title: title}
	must(t, r.CreateModule(context.Background(), &m))
	return m
}

// NewQuiz authors a quiz with n questions of two answers each. The first
// answer of every question is the correct one. QuestionCount is n.
func NewQuiz(t testing.TB, r course.Repository, moduleID int64, passingScore, n int) course.Quiz {
	t.Helper()
	q := course.Quiz{
		ModuleID:      moduleID,
		Title:         fmt.Sprintf("quiz for module %d", moduleID),
		PassingScore:  passingScore,
		QuestionCount: n,
	}
	for i := 0; i < n; i++ {
		q.Questions = append(q.Questions, course.Question{
			Text: fmt.Sprintf("question %d", i+1),
			Type: course.QuestionTypeSingleChoice,
			Answers: []course.Answer{
				{Text: "right", Correct: true},
				{Text: "wrong"},
			},
		})
	}
	must(t, r.CreateQuiz(context.Background(), &q))
	return q
}

func Enroll(t testing.TB, r course.Repository, studentID, courseID int64) {
	t.Helper()
	must(t, r.CreateEnrollment(context.Background(), course.Enrollment{StudentID: studentID, CourseID: courseID}))
}

// RecordAttempt stores an attempt directly, bypassing grading.
func RecordAttempt(t testing.TB, r course.Repository, studentID, quizID int64, score float64, passed bool) course.QuizAttempt {
	t.Helper()
	ctx := context.Background()
	n, err := r.CountAttempts(ctx, studentID, quizID)
	must(t, err)
	a := course.QuizAttempt{StudentID: studentID, QuizID: quizID, AttemptNumber: n + 1, Score: score, Passed: passed}
	must(t, r.CreateAttempt(ctx, &a))
	return a
}
