package course_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/course/coursetest"
)

func TestMemoryStore_InTxRestoresSnapshot(t *testing.T) {
	s := course.NewMemoryStore()
	ctx := context.Background()
	tid := coursetest.NewTeacher(t, s, "Tom", "Teach")
	kept := coursetest.NewCourse(t, s, tid, "Kept", true)

	boom := errors.New("boom")
	err := s.InTx(ctx, func(r course.Repository) error {
		c := course.Course{Title: "Doomed", TeacherID: tid}
		if err := r.CreateCourse(ctx, &c); err != nil {
			return err
		}
		kept.Title = "Renamed"
		if err := r.UpdateCourse(ctx, kept); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	all, _ := s.ListCourses(ctx, course.CourseFilter{})
	if len(all) != 1 || all[0].Title != "Kept" {
		t.Fatalf("snapshot not restored: %+v", all)
	}
}

func TestMemoryStore_Constraints(t *testing.T) {
	s := course.NewMemoryStore()
	ctx := context.Background()
	tid := coursetest.NewTeacher(t, s, "Tom", "Teach")
	sid := coursetest.NewStudent(t, s, "Sara", "Stud")
	c := coursetest.NewCourse(t, s, tid, "Algebra", true)
	m := coursetest.NewModule(t, s, c.ID, "Intro")
	q := coursetest.NewQuiz(t, s, m.ID, 50, 1)

	coursetest.RecordAttempt(t, s, sid, q.ID, 100, true)
	dup := course.QuizAttempt{StudentID: sid, QuizID: q.ID, AttemptNumber: 1}
	if err := s.CreateAttempt(ctx, &dup); !apperr.Is(err, apperr.KindAlreadyExists) {
		t.Fatalf("duplicate attempt number: want AlreadyExists, got %v", err)
	}

	coursetest.Enroll(t, s, sid, c.ID)
	if err := s.CreateEnrollment(ctx, course.Enrollment{StudentID: sid, CourseID: c.ID}); !apperr.Is(err, apperr.KindAlreadyExists) {
		t.Fatalf("duplicate enrollment: want AlreadyExists, got %v", err)
	}

	// returned quizzes are copies
	got, _ := s.GetQuiz(ctx, q.ID)
	got.Questions[0].Answers[0].Correct = false
	again, _ := s.GetQuiz(ctx, q.ID)
	if !again.Questions[0].Answers[0].Correct {
		t.Fatal("GetQuiz must not alias stored answers")
	}
}

func TestMemoryStore_WriteOutsideTxSurvivesRollback(t *testing.T) {
	s := course.NewMemoryStore()
	ctx := context.Background()

	entered, release := make(chan struct{}), make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- s.InTx(ctx, func(r course.Repository) error {
			close(entered)
			<-release
			return errors.New("boom")
		})
	}()
	<-entered

	written := make(chan error, 1)
	go func() {
		u := course.User{Email: "new@example.com", Role: "student"}
		written <- s.CreateUser(ctx, &u, "New", "Kid")
	}()
	select {
	case err := <-written:
		t.Fatalf("write finished while a unit of work was open: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	if err := <-txDone; err == nil {
		t.Fatal("tx should fail")
	}
	if err := <-written; err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetUserByEmail(ctx, "new@example.com"); err != nil {
		t.Fatalf("user lost after unrelated rollback: %v", err)
	}
}

func TestMemoryStore_EmailIgnoresCase(t *testing.T) {
	s := course.NewMemoryStore()
	ctx := context.Background()
	u := course.User{Email: "Ann@Example.com", Role: "student"}
	if err := s.CreateUser(ctx, &u, "Ann", "Lee"); err != nil {
		t.Fatal(err)
	}
	dup := course.User{Email: "ann@example.com", Role: "student"}
	if err := s.CreateUser(ctx, &dup, "Ann", "Lee"); !apperr.Is(err, apperr.KindAlreadyExists) {
		t.Fatalf("want AlreadyExists, got %v", err)
	}
	got, err := s.GetUserByEmail(ctx, "ann@example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("lookup: %+v (%v)", got, err)
	}
}
