// Package access builds the course detail view each kind of caller sees.
package access

import (
	"context"
	"fmt"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/identity"
	"github.com/mind-engage/mindengage-courses/internal/progress"
)

type QuizSummary struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	ModuleID        int64  `json:"moduleId"`
	PassingScore    int    `json:"passingScore"`
	DurationMinutes int    `json:"durationInMinutes"`
	QuestionCount   int    `json:"questionCount"`
	Passed          bool   `json:"passed"`
}

type ModuleView struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	Position int              `json:"position"`
	Progress float64          `json:"progress"`
	Lectures []course.Lecture `json:"lectures"`
	Quizzes  []QuizSummary    `json:"quizzes"`
}

type CourseView struct {
	ID           int64        `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	IsPublic     bool         `json:"isPublic"`
	TeacherID    int64        `json:"teacherId"`
	ProfileImage string       `json:"profileImage,omitempty"`
	IsEnrolled   bool         `json:"isEnrolled"`
	IsCreator    bool         `json:"isCreator"`
	Modules      []ModuleView `json:"modules"`
}

type Resolver struct {
	store course.Store
}

func NewResolver(store course.Store) *Resolver { return &Resolver{store: store} }

// ResolveCourseView returns the course with per-caller flags. Students get
// module progress and per-quiz pass status; teachers learn whether they own
// the course; everyone else gets the bare structure.
func (res *Resolver) ResolveCourseView(ctx context.Context, courseID int64, who identity.Identity) (CourseView, error) {
	var out CourseView
	err := res.store.InTx(ctx, func(r course.Repository) error {
		c, err := r.GetCourse(ctx, courseID)
		if err != nil {
			return err
		}
		out = CourseView{
			ID:           c.ID,
			Title:        c.Title,
			Description:  c.Description,
			IsPublic:     c.IsPublic,
			TeacherID:    c.TeacherID,
			ProfileImage: c.ProfileImage,
		}
		if out.Modules, err = structure(ctx, r, c.ID); err != nil {
			return err
		}

		switch w := who.(type) {
		case identity.Student:
			return overlayStudent(ctx, r, &out, w.ID)
		case identity.Teacher:
			out.IsCreator = c.TeacherID == w.ID
			return nil
		case identity.Admin, identity.Anonymous:
			return nil
		default:
			return apperr.InvalidState(fmt.Sprintf("unknown identity %T", who), nil)
		}
	})
	return out, err
}

func structure(ctx context.Context, r course.Repository, courseID int64) ([]ModuleView, error) {
	modules, err := r.ListModules(ctx, courseID)
	if err != nil {
		return nil, err
	}
	out := make([]ModuleView, 0, len(modules))
	for _, m := range modules {
		mv := ModuleView{ID: m.ID, Title: m.Title, Position: m.Position, Lectures: []course.Lecture{}, Quizzes: []QuizSummary{}}
		lectures, err := r.ListLectures(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		mv.Lectures = append(mv.Lectures, lectures...)
		quizzes, err := r.ListQuizzes(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		for _, q := range quizzes {
			mv.Quizzes = append(mv.Quizzes, QuizSummary{
				ID:              q.ID,
				Title:           q.Title,
				ModuleID:        q.ModuleID,
				PassingScore:    q.PassingScore,
				DurationMinutes: q.DurationMinutes,
				QuestionCount:   q.QuestionCount,
			})
		}
		out = append(out, mv)
	}
	return out, nil
}

func overlayStudent(ctx context.Context, r course.Repository, v *CourseView, studentID int64) error {
	_, err := r.GetEnrollment(ctx, studentID, v.ID)
	switch {
	case err == nil:
		v.IsEnrolled = true
	case !apperr.Is(err, apperr.KindNotFound):
		return err
	}
	for i := range v.Modules {
		m := &v.Modules[i]
		if m.Progress, err = progress.Module(ctx, r, studentID, m.ID); err != nil {
			return err
		}
		for j := range m.Quizzes {
			a, ok, err := r.LatestAttempt(ctx, studentID, m.Quizzes[j].ID)
			if err != nil {
				return err
			}
			m.Quizzes[j].Passed = ok && a.Passed
		}
	}
	return nil
}
