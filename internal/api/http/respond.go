package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/identity"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an apperr kind to a status code. Unclassified errors are
// logged and reported as 500 without their text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		log.Printf("error: %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal error"})
		return
	}
	status := http.StatusInternalServerError
	switch e.Kind {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUnauthorized:
		status = http.StatusForbidden
		if _, anon := identity.FromContext(r.Context()).(identity.Anonymous); anon {
			status = http.StatusUnauthorized
		}
	case apperr.KindAlreadyExists:
		status = http.StatusConflict
	case apperr.KindInvalidState, apperr.KindNotCompleted:
		status = http.StatusUnprocessableEntity
	case apperr.KindInvalid:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorBody{Error: string(e.Kind), Message: e.Msg, ID: e.ID})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		return apperr.Invalid("bad json: " + err.Error())
	}
	return nil
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("bad " + name)
	}
	return id, nil
}

func caller(r *http.Request) identity.Identity { return identity.FromContext(r.Context()) }
