package http

import (
	"net/http"
	"strings"

	"github.com/mind-engage/mindengage-courses/internal/access"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
)

// Handlers only; routes are mounted in routes.go.

// SearchCoursesHandler lists public courses matching ?q= on title or description.
func SearchCoursesHandler(cat *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := cat.SearchPublic(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// CoursesByCategoryHandler accepts ?name=MATH&name=AI or ?name=MATH,AI.
func CoursesByCategoryHandler(cat *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var names []string
		for _, v := range r.URL.Query()["name"] {
			names = append(names, strings.Split(v, ",")...)
		}
		list, err := cat.ByCategories(r.Context(), names)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func CategoriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, catalog.Categories())
	}
}

func PrivateCoursesHandler(cat *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := cat.PrivateCourses(r.Context(), caller(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GetCourseHandler returns the course structure shaped for the caller.
func GetCourseHandler(res *access.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "courseID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		v, err := res.ResolveCourseView(r.Context(), id, caller(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func CreateCourseHandler(cat *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in catalog.CourseInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		c, err := cat.CreateCourse(r.Context(), caller(r), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func EditCourseHandler(cat *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "courseID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var in catalog.CourseInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		c, err := cat.EditCourse(r.Context(), caller(r), id, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func DeleteCourseHandler(cat *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "courseID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := cat.DeleteCourse(r.Context(), caller(r), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SetVisibilityHandler approves (public=true) or disallows a course.
func SetVisibilityHandler(cat *catalog.Service, public bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "courseID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		op := cat.Disallow
		if public {
			op = cat.Approve
		}
		c, err := op(r.Context(), caller(r), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}
