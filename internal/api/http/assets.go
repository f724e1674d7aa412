package http

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/certificate"
	"github.com/mind-engage/mindengage-courses/internal/identity"
	"github.com/mind-engage/mindengage-courses/internal/storage"
)

// CertificateHandler issues a certificate for the calling student and
// returns the rendered document.
func CertificateHandler(g *certificate.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, err := idParam(r, "courseID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		iss, err := g.Generate(r.Context(), caller(r), courseID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", iss.ContentType)
		w.Header().Set("X-Certificate-Number", iss.Certificate.Number)
		if iss.Certificate.BlobKey != "" {
			w.Header().Set("X-Certificate-Key", iss.Certificate.BlobKey)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(iss.Body)
	}
}

// MountAssets serves stored certificate documents at /assets/<key>.
// Students only read their own certificates; admins read any.
func MountAssets(r chi.Router, bs storage.BlobStore) {
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		switch who := caller(r).(type) {
		case identity.Admin:
		case identity.Student:
			if !strings.HasPrefix(key, fmt.Sprintf("certificates/%d/", who.ID)) {
				writeError(w, r, apperr.Unauthorized("not your document"))
				return
			}
		case identity.Teacher, identity.Anonymous:
			writeError(w, r, apperr.Unauthorized("not your document"))
			return
		}
		rc, err := bs.Get(r.Context(), key)
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer rc.Close()
		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	})
}
