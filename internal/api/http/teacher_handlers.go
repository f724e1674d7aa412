package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-courses/internal/catalog"
)

func CreateModuleHandler(cat *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, err := idParam(r, "courseID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var in catalog.ModuleInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		m, err := cat.CreateModule(r.Context(), caller(r), courseID, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}

func CreateLectureHandler(cat *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		moduleID, err := idParam(r, "moduleID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var in catalog.LectureInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		l, err := cat.CreateLecture(r.Context(), caller(r), moduleID, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, l)
	}
}

// CreateQuizHandler stores a quiz with its questions and answers. The
// response includes correctness flags since only authors reach it.
func CreateQuizHandler(cat *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		moduleID, err := idParam(r, "moduleID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var in catalog.QuizInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		q, err := cat.CreateQuiz(r.Context(), caller(r), moduleID, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

func DeleteQuizHandler(cat *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID, err := idParam(r, "quizID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := cat.DeleteQuiz(r.Context(), caller(r), quizID); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
