package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-courses/internal/access"
	auth "github.com/mind-engage/mindengage-courses/internal/auth/middleware"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/certificate"
	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/course/coursetest"
	"github.com/mind-engage/mindengage-courses/internal/grading"
	"github.com/mind-engage/mindengage-courses/internal/progress"
	"github.com/mind-engage/mindengage-courses/internal/storage"
)

type harness struct {
	t      *testing.T
	router chi.Router
	tokens map[string]string
	store  *course.MemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := course.NewMemoryStore()
	blobs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	a := auth.NewAuthService("test-secret")
	clock := func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	Mount(r, Services{
		Auth:     a,
		Users:    store,
		Catalog:  catalog.NewService(store),
		Progress: progress.NewService(store),
		Grading:  grading.NewEngine(store),
		Access:   access.NewResolver(store),
		Certs: certificate.NewGate(store, certificate.TextRenderer{},
			certificate.WithBlobStore(blobs), certificate.WithClock(clock)),
		Blobs: blobs,
	})

	h := &harness{t: t, router: r, tokens: map[string]string{}, store: store}
	sign := func(name string, id int64, role string) {
		tok, err := a.IssueJWT(id, role)
		if err != nil {
			t.Fatal(err)
		}
		h.tokens[name] = tok
	}
	sign("teacher", coursetest.NewTeacher(t, store, "Tom", "Teach"), "teacher")
	sign("student", coursetest.NewStudent(t, store, "Sara", "Stud"), "student")
	sign("other", coursetest.NewStudent(t, store, "Olga", "Other"), "student")
	admin := course.User{Email: "admin@example.com", Role: "admin"}
	if err := store.CreateUser(context.Background(), &admin, "Ada", "Admin"); err != nil {
		t.Fatal(err)
	}
	sign("admin", admin.ID, "admin")
	return h
}

// do sends a request as the named caller ("" is anonymous).
func (h *harness) do(who, method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			h.t.Fatal(err)
		}
		rd = bytes.NewReader(buf)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if tok := h.tokens[who]; tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) expect(rec *httptest.ResponseRecorder, status int, out any) {
	h.t.Helper()
	if rec.Code != status {
		h.t.Fatalf("want %d, got %d: %s", status, rec.Code, rec.Body)
	}
	if out != nil {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			h.t.Fatalf("decode: %v", err)
		}
	}
}

func TestCourseLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)

	var c course.Course
	h.expect(h.do("teacher", http.MethodPost, "/courses", map[string]string{"title": "Algebra MATH"}), http.StatusCreated, &c)
	if c.IsPublic {
		t.Fatal("new course should await approval")
	}
	h.expect(h.do("student", http.MethodPost, "/courses", map[string]string{"title": "x"}), http.StatusForbidden, nil)
	h.expect(h.do("", http.MethodPost, "/courses", map[string]string{"title": "x"}), http.StatusUnauthorized, nil)

	var found []course.Course
	h.expect(h.do("", http.MethodGet, "/courses?q=algebra", nil), http.StatusOK, &found)
	if len(found) != 0 {
		t.Fatalf("private course must not be listed: %+v", found)
	}
	h.expect(h.do("teacher", http.MethodPost, fmt.Sprintf("/courses/%d/approve", c.ID), nil), http.StatusForbidden, nil)
	h.expect(h.do("admin", http.MethodPost, fmt.Sprintf("/courses/%d/approve", c.ID), nil), http.StatusOK, nil)
	h.expect(h.do("", http.MethodGet, "/courses?q=algebra", nil), http.StatusOK, &found)
	if len(found) != 1 || found[0].ID != c.ID {
		t.Fatalf("search after approval: %+v", found)
	}

	var m course.Module
	h.expect(h.do("teacher", http.MethodPost, fmt.Sprintf("/courses/%d/modules", c.ID), map[string]any{"title": "Intro"}), http.StatusCreated, &m)
	var q course.Quiz
	h.expect(h.do("teacher", http.MethodPost, fmt.Sprintf("/modules/%d/quizzes", m.ID), catalog.QuizInput{
		Title:         "Warm-up",
		PassingScore:  50,
		QuestionCount: 2,
		Questions: []catalog.QuestionInput{
			{Text: "1+1", Answers: []catalog.AnswerInput{{Text: "2", Correct: true}, {Text: "3"}}},
			{Text: "2+2", Answers: []catalog.AnswerInput{{Text: "5"}, {Text: "4", Correct: true}}},
		},
	}), http.StatusCreated, &q)
	if q.QuestionCount != 2 || len(q.Questions) != 2 {
		t.Fatalf("quiz: %+v", q)
	}

	h.expect(h.do("student", http.MethodPost, fmt.Sprintf("/courses/%d/enroll", c.ID), nil), http.StatusCreated, nil)
	h.expect(h.do("student", http.MethodPost, fmt.Sprintf("/courses/%d/enroll", c.ID), nil), http.StatusConflict, nil)

	rec := h.do("student", http.MethodGet, fmt.Sprintf("/quizzes/%d", q.ID), nil)
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), `"correct"`) {
		t.Fatalf("quiz view must hide correctness: %d %s", rec.Code, rec.Body)
	}

	// not complete yet
	h.expect(h.do("student", http.MethodGet, fmt.Sprintf("/courses/%d/certificate", c.ID), nil), http.StatusUnprocessableEntity, nil)

	var sels []grading.Selection
	for _, qq := range q.Questions {
		for _, a := range qq.Answers {
			if a.Correct {
				sels = append(sels, grading.Selection{QuestionID: qq.ID, AnswerID: a.ID})
			}
		}
	}
	var att course.QuizAttempt
	h.expect(h.do("student", http.MethodPost, fmt.Sprintf("/quizzes/%d/attempts", q.ID),
		grading.Submission{Answers: sels, DurationSeconds: 30}), http.StatusCreated, &att)
	if att.Score != 100 || !att.Passed || att.AttemptNumber != 1 {
		t.Fatalf("attempt: %+v", att)
	}
	h.expect(h.do("teacher", http.MethodPost, fmt.Sprintf("/quizzes/%d/attempts", q.ID),
		grading.Submission{Answers: sels}), http.StatusForbidden, nil)

	var done struct{ Completed bool }
	h.expect(h.do("student", http.MethodGet, fmt.Sprintf("/courses/%d/completion", c.ID), nil), http.StatusOK, &done)
	if !done.Completed {
		t.Fatal("course should be complete")
	}

	var view access.CourseView
	h.expect(h.do("student", http.MethodGet, fmt.Sprintf("/courses/%d", c.ID), nil), http.StatusOK, &view)
	if !view.IsEnrolled || len(view.Modules) != 1 || view.Modules[0].Progress != 100 || !view.Modules[0].Quizzes[0].Passed {
		t.Fatalf("student view: %+v", view)
	}
	var anon access.CourseView
	h.expect(h.do("", http.MethodGet, fmt.Sprintf("/courses/%d", c.ID), nil), http.StatusOK, &anon)
	if anon.IsEnrolled || anon.Modules[0].Progress != 0 {
		t.Fatalf("anonymous view: %+v", anon)
	}

	rec = h.do("student", http.MethodGet, fmt.Sprintf("/courses/%d/certificate", c.ID), nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Sara Stud") {
		t.Fatalf("certificate: %d %s", rec.Code, rec.Body)
	}
	key := rec.Header().Get("X-Certificate-Key")
	if rec.Header().Get("X-Certificate-Number") == "" || key == "" {
		t.Fatalf("certificate headers: %v", rec.Header())
	}

	rec = h.do("student", http.MethodGet, "/assets/"+key, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Algebra MATH") {
		t.Fatalf("stored certificate: %d %s", rec.Code, rec.Body)
	}
	h.expect(h.do("other", http.MethodGet, "/assets/"+key, nil), http.StatusForbidden, nil)

	var completed []progress.CourseWithProgress
	h.expect(h.do("student", http.MethodGet, "/me/courses/completed", nil), http.StatusOK, &completed)
	if len(completed) != 1 || completed[0].Progress != 100 {
		t.Fatalf("completed courses: %+v", completed)
	}
	var mine []progress.CourseWithProgress
	h.expect(h.do("student", http.MethodGet, "/me/courses", nil), http.StatusOK, &mine)
	if len(mine) != 0 {
		t.Fatalf("completed course should leave my courses: %+v", mine)
	}
}

func TestErrorMapping(t *testing.T) {
	h := newHarness(t)

	var body errorBody
	h.expect(h.do("student", http.MethodGet, "/quizzes/999", nil), http.StatusNotFound, &body)
	if body.Error != "not_found" || body.ID != "999" {
		t.Fatalf("error body: %+v", body)
	}
	h.expect(h.do("student", http.MethodGet, "/quizzes/abc", nil), http.StatusBadRequest, nil)
	h.expect(h.do("student", http.MethodGet, "/courses/999/progress", nil), http.StatusNotFound, nil)
	h.expect(h.do("", http.MethodGet, "/courses/categories", nil), http.StatusUnprocessableEntity, nil)
	h.expect(h.do("", http.MethodGet, "/courses/categories?name=NOPE", nil), http.StatusUnprocessableEntity, nil)
	h.expect(h.do("", http.MethodGet, "/courses/categories?name=MATH,AI", nil), http.StatusOK, nil)
	h.expect(h.do("teacher", http.MethodPost, "/courses", map[string]string{"title": ""}), http.StatusBadRequest, nil)
	h.expect(h.do("admin", http.MethodGet, "/courses/private", nil), http.StatusOK, nil)
	h.expect(h.do("teacher", http.MethodGet, "/courses/private", nil), http.StatusForbidden, nil)

	req := httptest.NewRequest(http.MethodGet, "/me/courses", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: want 401, got %d", rec.Code)
	}
}
