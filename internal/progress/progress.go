// Package progress derives module and course progress from quiz attempts and
// keeps the enrollment completion flag in step with it.
//
// The package-level functions take a course.Repository so callers can compose
// them inside one transaction; Service wraps each in its own.
package progress

import (
	"context"
	"strconv"

	"github.com/mind-engage/mindengage-courses/internal/course"
	syncx "github.com/mind-engage/mindengage-courses/internal/sync"
)

// Module returns the student's progress (0..100) in a module. A module
// without quizzes counts as fully done. Each quiz contributes the score of
// the student's latest attempt when that attempt passed, 0 otherwise.
func Module(ctx context.Context, r course.Repository, studentID, moduleID int64) (float64, error) {
	quizzes, err := r.ListQuizzes(ctx, moduleID)
	if err != nil {
		return 0, err
	}
	if len(quizzes) == 0 {
		return 100, nil
	}
	if _, err := r.GetStudent(ctx, studentID); err != nil {
		return 0, err
	}
	var total float64
	for _, q := range quizzes {
		a, ok, err := r.LatestAttempt(ctx, studentID, q.ID)
		if err != nil {
			return 0, err
		}
		if ok && a.Passed {
			total += a.Score
		}
	}
	return total / float64(len(quizzes)), nil
}

// Course returns the mean module progress of a course (0 with no modules)
// and then re-evaluates the enrollment's completion flag.
func Course(ctx context.Context, r course.Repository, studentID, courseID int64) (float64, error) {
	modules, err := r.ListModules(ctx, courseID)
	if err != nil {
		return 0, err
	}
	var p float64
	if len(modules) > 0 {
		var sum float64
		for _, m := range modules {
			mp, err := Module(ctx, r, studentID, m.ID)
			if err != nil {
				return 0, err
			}
			sum += mp
		}
		p = sum / float64(len(modules))
	}
	if _, err := EvaluateAndPersistCompletion(ctx, r, studentID, courseID); err != nil {
		return 0, err
	}
	return p, nil
}

// Completed reports whether every quiz in every module of the course has a
// passed latest attempt. A course with no modules is never complete.
func Completed(ctx context.Context, r course.Repository, studentID, courseID int64) (bool, error) {
	modules, err := r.ListModules(ctx, courseID)
	if err != nil {
		return false, err
	}
	if len(modules) == 0 {
		return false, nil
	}
	if _, err := r.GetStudent(ctx, studentID); err != nil {
		return false, err
	}
	for _, m := range modules {
		quizzes, err := r.ListQuizzes(ctx, m.ID)
		if err != nil {
			return false, err
		}
		for _, q := range quizzes {
			a, ok, err := r.LatestAttempt(ctx, studentID, q.ID)
			if err != nil {
				return false, err
			}
			if !ok || !a.Passed {
				return false, nil
			}
		}
	}
	return true, nil
}

// EvaluateAndPersistCompletion sets the enrollment's completed flag when the
// course is complete. It never clears the flag. The returned enrollment is
// the stored state after evaluation.
func EvaluateAndPersistCompletion(ctx context.Context, r course.Repository, studentID, courseID int64) (course.Enrollment, error) {
	e, err := r.GetEnrollment(ctx, studentID, courseID)
	if err != nil {
		return course.Enrollment{}, err
	}
	done, err := Completed(ctx, r, studentID, courseID)
	if err != nil {
		return course.Enrollment{}, err
	}
	if !done {
		return e, nil
	}
	wasCompleted := e.Completed
	e.Completed = true
	if err := r.SaveEnrollment(ctx, e); err != nil {
		return course.Enrollment{}, err
	}
	if !wasCompleted {
		ev, err := syncx.NewEvent(syncx.TypeEnrollmentCompleted,
			strconv.FormatInt(studentID, 10)+":"+strconv.FormatInt(courseID, 10), e)
		if err != nil {
			return course.Enrollment{}, err
		}
		if err := r.AppendEvent(ctx, ev); err != nil {
			return course.Enrollment{}, err
		}
	}
	return e, nil
}
