package grading

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/course/coursetest"
	"github.com/mind-engage/mindengage-courses/internal/identity"
	syncx "github.com/mind-engage/mindengage-courses/internal/sync"
)

func newEngine(store course.Store) *Engine {
	return NewEngine(store,
		WithRand(rand.New(rand.NewSource(7))),
		WithClock(func() time.Time { return time.Unix(1700000000, 0) }),
	)
}

// answer picks the right (or wrong) answer of question i.
func answer(q course.Quiz, i int, right bool) Selection {
	qq := q.Questions[i]
	for _, a := range qq.Answers {
		if a.Correct == right {
			return Selection{QuestionID: qq.ID, AnswerID: a.ID}
		}
	}
	panic("fixture has no such answer")
}

func TestSubmit_ScoresAgainstQuestionCount(t *testing.T) {
	store := course.NewMemoryStore()
	tid := coursetest.NewTeacher(t, store, "Tom", "Teach")
	sid := coursetest.NewStudent(t, store, "Sara", "Stud")
	c := coursetest.NewCourse(t, store, tid, "Algebra", true)
	m := coursetest.NewModule(t, store, c.ID, "Intro")
	q := coursetest.NewQuiz(t, store, m.ID, 70, 4)

	e := newEngine(store)
	ctx := context.Background()

	// 3 of 4 correct: 75 >= 70
	got, err := e.Submit(ctx, identity.Student{ID: sid}, q.ID, Submission{
		Answers: []Selection{
			answer(q, 0, true), answer(q, 1, true), answer(q, 2, true), answer(q, 3, false),
		},
		DurationSeconds: 42,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Score != 75 || !got.Passed || got.AttemptNumber != 1 || got.DurationSeconds != 42 {
		t.Fatalf("unexpected attempt: %+v", got)
	}
	if len(got.Answers) != 4 || got.Answers[3].Correct {
		t.Fatalf("answers not frozen correctly: %+v", got.Answers)
	}

	// Unanswered questions count as wrong: 1 of 4 = 25
	got, err = e.Submit(ctx, identity.Student{ID: sid}, q.ID, Submission{
		Answers: []Selection{answer(q, 2, true)},
	})
	if err != nil {
		t.Fatalf("submit 2: %v", err)
	}
	if got.Score != 25 || got.Passed || got.AttemptNumber != 2 {
		t.Fatalf("unexpected second attempt: %+v", got)
	}

	latest, err := e.LatestAttempt(ctx, identity.Student{ID: sid}, q.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.AttemptNumber != 2 || latest.Passed {
		t.Fatalf("latest should be attempt 2, got %+v", latest)
	}

	evs := store.Events()
	if len(evs) != 2 || evs[0].Type != syncx.TypeAttemptSubmitted {
		t.Fatalf("expected two AttemptSubmitted events, got %+v", evs)
	}
}

func TestSubmit_PassesAtExactThreshold(t *testing.T) {
	store := course.NewMemoryStore()
	tid := coursetest.NewTeacher(t, store, "Tom", "Teach")
	sid := coursetest.NewStudent(t, store, "Sara", "Stud")
	c := coursetest.NewCourse(t, store, tid, "Algebra", true)
	m := coursetest.NewModule(t, store, c.ID, "Intro")
	q := coursetest.NewQuiz(t, store, m.ID, 50, 2)

	got, err := newEngine(store).Submit(context.Background(), identity.Student{ID: sid}, q.ID, Submission{
		Answers: []Selection{answer(q, 0, true), answer(q, 1, false)},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Score != 50 || !got.Passed {
		t.Fatalf("score equal to passing score must pass: %+v", got)
	}
}

func TestSubmit_UnknownAnswerPersistsNothing(t *testing.T) {
	store := course.NewMemoryStore()
	tid := coursetest.NewTeacher(t, store, "Tom", "Teach")
	sid := coursetest.NewStudent(t, store, "Sara", "Stud")
	c := coursetest.NewCourse(t, store, tid, "Algebra", true)
	m := coursetest.NewModule(t, store, c.ID, "Intro")
	q := coursetest.NewQuiz(t, store, m.ID, 50, 2)
	other := coursetest.NewQuiz(t, store, m.ID, 50, 1)

	e := newEngine(store)
	ctx := context.Background()
	who := identity.Student{ID: sid}

	_, err := e.Submit(ctx, who, q.ID, Submission{Answers: []Selection{
		answer(q, 0, true),
		{QuestionID: q.Questions[1].ID, AnswerID: 99999},
	}})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound for unknown answer, got %v", err)
	}

	// a question from another quiz is not part of this quiz
	_, err = e.Submit(ctx, who, q.ID, Submission{Answers: []Selection{answer(other, 0, true)}})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound for foreign question, got %v", err)
	}

	n, _ := store.CountAttempts(ctx, sid, q.ID)
	if n != 0 {
		t.Fatalf("failed submissions must not persist attempts, got %d", n)
	}
	if len(store.Events()) != 0 {
		t.Fatalf("failed submissions must not append events")
	}
}

func TestSubmit_Rejections(t *testing.T) {
	store := course.NewMemoryStore()
	tid := coursetest.NewTeacher(t, store, "Tom", "Teach")
	sid := coursetest.NewStudent(t, store, "Sara", "Stud")
	c := coursetest.NewCourse(t, store, tid, "Algebra", true)
	m := coursetest.NewModule(t, store, c.ID, "Intro")
	empty := coursetest.NewQuiz(t, store, m.ID, 50, 0)

	e := newEngine(store)
	ctx := context.Background()

	if _, err := e.Submit(ctx, identity.Teacher{ID: tid}, empty.ID, Submission{}); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("teacher submit: want Unauthorized, got %v", err)
	}
	if _, err := e.Submit(ctx, identity.Anonymous{}, empty.ID, Submission{}); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("anonymous submit: want Unauthorized, got %v", err)
	}
	if _, err := e.Submit(ctx, identity.Student{ID: 4242}, empty.ID, Submission{}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unknown student: want NotFound, got %v", err)
	}
	if _, err := e.Submit(ctx, identity.Student{ID: sid}, 4242, Submission{}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unknown quiz: want NotFound, got %v", err)
	}
	if _, err := e.Submit(ctx, identity.Student{ID: sid}, empty.ID, Submission{}); !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("zero question count: want InvalidState, got %v", err)
	}
	if _, err := e.Submit(ctx, identity.Student{ID: sid}, empty.ID, Submission{DurationSeconds: -1}); !apperr.Is(err, apperr.KindInvalid) {
		t.Fatalf("negative duration: want Invalid, got %v", err)
	}
}

func TestLatestAttempt_NoneIsNotFound(t *testing.T) {
	store := course.NewMemoryStore()
	tid := coursetest.NewTeacher(t, store, "Tom", "Teach")
	sid := coursetest.NewStudent(t, store, "Sara", "Stud")
	c := coursetest.NewCourse(t, store, tid, "Algebra", true)
	m := coursetest.NewModule(t, store, c.ID, "Intro")
	q := coursetest.NewQuiz(t, store, m.ID, 50, 1)

	_, err := newEngine(store).LatestAttempt(context.Background(), identity.Student{ID: sid}, q.ID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("want NotFound, got %v", err)
	}
}

// authorQuiz stores a quiz with n authored questions of which count are served.
func authorQuiz(t *testing.T, r course.Repository, moduleID int64, n, count int) course.Quiz {
	t.Helper()
	q := course.Quiz{ModuleID: moduleID, Title: "pool", PassingScore: 50, QuestionCount: count}
	for i := 0; i < n; i++ {
		q.Questions = append(q.Questions, course.Question{
			Text:    "q",
			Answers: []course.Answer{{Text: "a", Correct: true}, {Text: "b"}},
		})
	}
	if err := r.CreateQuiz(context.Background(), &q); err != nil {
		t.Fatal(err)
	}
	return q
}

func TestPresentQuiz_SubsetWithoutKeys(t *testing.T) {
	store := course.NewMemoryStore()
	tid := coursetest.NewTeacher(t, store, "Tom", "Teach")
	c := coursetest.NewCourse(t, store, tid, "Algebra", true)
	m := coursetest.NewModule(t, store, c.ID, "Intro")
	pool := authorQuiz(t, store, m.ID, 5, 3)

	e := newEngine(store)
	ctx := context.Background()
	view, err := e.PresentQuiz(ctx, pool.ID)
	if err != nil {
		t.Fatalf("present: %v", err)
	}
	if len(view.Questions) != 3 {
		t.Fatalf("want 3 questions, got %d", len(view.Questions))
	}
	seen := map[int64]bool{}
	for _, qv := range view.Questions {
		if seen[qv.ID] {
			t.Fatalf("question %d served twice", qv.ID)
		}
		seen[qv.ID] = true
		if len(qv.Answers) != 2 {
			t.Fatalf("answers must be served: %+v", qv)
		}
	}

	stored, _ := store.GetQuiz(ctx, pool.ID)
	if len(stored.Questions) != 5 {
		t.Fatalf("stored quiz must keep all questions, got %d", len(stored.Questions))
	}

	// fewer available than QuestionCount: serve all
	small := authorQuiz(t, store, m.ID, 2, 10)
	view, err = e.PresentQuiz(ctx, small.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Questions) != 2 {
		t.Fatalf("want all 2 questions, got %d", len(view.Questions))
	}

	if _, err := e.PresentQuiz(ctx, 4242); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unknown quiz: want NotFound, got %v", err)
	}
}

func TestGrader_UnknownTypeIsInvalidState(t *testing.T) {
	g := NewDefaultGrader()
	_, err := g.Grade(context.Background(), course.Question{Type: "essay"}, Selection{QuestionID: 1, AnswerID: 1})
	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("want InvalidState, got %v", err)
	}
}
