package progress

import (
	"context"
	"log"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/identity"
)

// Service runs each progress operation in its own transaction.
type Service struct {
	store course.Store
}

func NewService(store course.Store) *Service { return &Service{store: store} }

func (s *Service) ModuleProgress(ctx context.Context, studentID, moduleID int64) (p float64, err error) {
	err = s.store.InTx(ctx, func(r course.Repository) error {
		p, err = Module(ctx, r, studentID, moduleID)
		return err
	})
	return p, err
}

func (s *Service) CourseProgress(ctx context.Context, studentID, courseID int64) (p float64, err error) {
	err = s.store.InTx(ctx, func(r course.Repository) error {
		p, err = Course(ctx, r, studentID, courseID)
		return err
	})
	return p, err
}

func (s *Service) IsCourseCompleted(ctx context.Context, studentID, courseID int64) (done bool, err error) {
	err = s.store.InTx(ctx, func(r course.Repository) error {
		done, err = Completed(ctx, r, studentID, courseID)
		return err
	})
	return done, err
}

func (s *Service) UpdateEnrollmentStatus(ctx context.Context, studentID, courseID int64) (e course.Enrollment, err error) {
	err = s.store.InTx(ctx, func(r course.Repository) error {
		e, err = EvaluateAndPersistCompletion(ctx, r, studentID, courseID)
		return err
	})
	return e, err
}

// Enroll creates a not-completed enrollment for the calling student.
func (s *Service) Enroll(ctx context.Context, who identity.Identity, courseID int64) (course.Enrollment, error) {
	studentID, err := identity.StudentID(who)
	if err != nil {
		return course.Enrollment{}, err
	}
	var out course.Enrollment
	err = s.store.InTx(ctx, func(r course.Repository) error {
		if _, err := r.GetStudent(ctx, studentID); err != nil {
			return err
		}
		if _, err := r.GetCourse(ctx, courseID); err != nil {
			return err
		}
		_, err := r.GetEnrollment(ctx, studentID, courseID)
		switch {
		case err == nil:
			return apperr.AlreadyExists("student already enrolled", courseID)
		case !apperr.Is(err, apperr.KindNotFound):
			return err
		}
		out = course.Enrollment{StudentID: studentID, CourseID: courseID}
		if err := r.CreateEnrollment(ctx, out); err != nil {
			return err
		}
		out, err = r.GetEnrollment(ctx, studentID, courseID)
		return err
	})
	if err == nil {
		log.Printf("student %d enrolled in course %d", studentID, courseID)
	}
	return out, err
}

// CourseWithProgress is a course listed for a student with their progress.
type CourseWithProgress struct {
	course.Course
	Progress float64 `json:"progress"`
}

// MyCourses lists the caller's enrolled public courses that are not complete.
func (s *Service) MyCourses(ctx context.Context, who identity.Identity) ([]CourseWithProgress, error) {
	return s.listEnrolled(ctx, who, func(c course.Course, done bool) bool {
		return c.IsPublic && !done
	})
}

// CompletedCourses lists the caller's enrolled courses that are complete,
// persisting the completed flag for each.
func (s *Service) CompletedCourses(ctx context.Context, who identity.Identity) ([]CourseWithProgress, error) {
	return s.listEnrolled(ctx, who, func(_ course.Course, done bool) bool { return done })
}

func (s *Service) listEnrolled(ctx context.Context, who identity.Identity, keep func(course.Course, bool) bool) ([]CourseWithProgress, error) {
	studentID, err := identity.StudentID(who)
	if err != nil {
		return nil, err
	}
	out := []CourseWithProgress{}
	err = s.store.InTx(ctx, func(r course.Repository) error {
		if _, err := r.GetStudent(ctx, studentID); err != nil {
			return err
		}
		courses, err := r.ListEnrolledCourses(ctx, studentID)
		if err != nil {
			return err
		}
		for _, c := range courses {
			done, err := Completed(ctx, r, studentID, c.ID)
			if err != nil {
				return err
			}
			if !keep(c, done) {
				continue
			}
			p, err := Course(ctx, r, studentID, c.ID)
			if err != nil {
				return err
			}
			out = append(out, CourseWithProgress{Course: c, Progress: p})
		}
		return nil
	})
	return out, err
}
