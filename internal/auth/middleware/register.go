package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/course"
)

type UserCreator interface {
	CreateUser(ctx context.Context, u *course.User, firstName, lastName string) error
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	FirstName string `json:"firstname" validate:"required,max=100"`
	LastName  string `json:"lastname" validate:"required,max=100"`
	Role      string `json:"role" validate:"omitempty,oneof=student teacher"`
}

var validate = validator.New()

// POST /auth/register  { "email", "password", "firstname", "lastname", "role" }
// Self-registration creates students or teachers; admins are seeded.
func RegisterHandler(users UserCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Role == "" {
			req.Role = "student"
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}
		u := course.User{Email: req.Email, Role: req.Role, PasswordHash: string(hash)}
		switch err := users.CreateUser(r.Context(), &u, req.FirstName, req.LastName); {
		case apperr.Is(err, apperr.KindAlreadyExists):
			http.Error(w, "email already registered", http.StatusConflict)
			return
		case err != nil:
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"user_id": u.ID, "role": u.Role})
	}
}
