package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/grading"
	"github.com/mind-engage/mindengage-courses/internal/identity"
	"github.com/mind-engage/mindengage-courses/internal/progress"
)

func EnrollHandler(ps *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, err := idParam(r, "courseID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		e, err := ps.Enroll(r.Context(), caller(r), courseID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

// GetQuizHandler serves a freshly shuffled selection of the quiz's questions.
func GetQuizHandler(eng *grading.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID, err := idParam(r, "quizID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		v, err := eng.PresentQuiz(r.Context(), quizID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func SubmitAttemptHandler(eng *grading.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID, err := idParam(r, "quizID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var sub grading.Submission
		if err := decodeJSON(r, &sub); err != nil {
			writeError(w, r, err)
			return
		}
		a, err := eng.Submit(r.Context(), caller(r), quizID, sub)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

func LatestAttemptHandler(eng *grading.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID, err := idParam(r, "quizID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		a, err := eng.LatestAttempt(r.Context(), caller(r), quizID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func ModuleProgressHandler(ps *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		moduleID, err := idParam(r, "moduleID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		sid, err := identity.StudentID(caller(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		p, err := ps.ModuleProgress(r.Context(), sid, moduleID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"moduleId": moduleID, "progress": p})
	}
}

func CourseProgressHandler(ps *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, err := idParam(r, "courseID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		sid, err := identity.StudentID(caller(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		p, err := ps.CourseProgress(r.Context(), sid, courseID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"courseId": courseID, "progress": p})
	}
}

// CompletionHandler reports whether the caller completed the course. POST
// also persists the completed flag when the predicate holds.
func CompletionHandler(ps *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, err := idParam(r, "courseID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		sid, err := identity.StudentID(caller(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if r.Method == http.MethodPost {
			e, err := ps.UpdateEnrollmentStatus(r.Context(), sid, courseID)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, e)
			return
		}
		done, err := ps.IsCourseCompleted(r.Context(), sid, courseID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"courseId": courseID, "completed": done})
	}
}

func MyCoursesHandler(ps *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := ps.MyCourses(r.Context(), caller(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func CompletedCoursesHandler(ps *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := ps.CompletedCourses(r.Context(), caller(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetLectureHandler(cat *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "lectureID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		l, err := cat.GetLecture(r.Context(), caller(r), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func MarkLectureViewedHandler(cat *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "lectureID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := cat.MarkLectureViewed(r.Context(), caller(r), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
