package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/identity"
)

func seedUser(t *testing.T, s *course.MemoryStore, email, role, password string) course.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	u := course.User{Email: email, Role: role, PasswordHash: string(hash)}
	if err := s.CreateUser(context.Background(), &u, "First", "Last"); err != nil {
		t.Fatal(err)
	}
	return u
}

// echo writes the role of the identity found in the request context.
var echo = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("role=" + identity.FromContext(r.Context()).Role()))
})

func TestLoginAndJWTMiddleware(t *testing.T) {
	store := course.NewMemoryStore()
	u := seedUser(t, store, "sara@example.com", "student", "s3cret")
	a := NewAuthService("test-secret")

	body := strings.NewReader(`{"email":"sara@example.com","password":"s3cret"}`)
	rec := httptest.NewRecorder()
	LoginHandler(a, store)(rec, httptest.NewRequest(http.MethodPost, "/auth/login", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", rec.Code, rec.Body)
	}
	var out struct {
		AccessToken string `json:"access_token"`
		UserID      int64  `json:"user_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil || out.AccessToken == "" || out.UserID != u.ID {
		t.Fatalf("login body: %+v (%v)", out, err)
	}

	c, err := a.Parse(out.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if who, ok := c.Identity().(identity.Student); !ok || who.ID != u.ID {
		t.Fatalf("claims identity %#v", c.Identity())
	}

	h := JWTMiddleware(a)(echo)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+out.AccessToken)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "role=student" {
		t.Fatalf("jwt middleware: %d %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing bearer: want 401, got %d", rec.Code)
	}
}

func TestLogin_BadPassword(t *testing.T) {
	store := course.NewMemoryStore()
	seedUser(t, store, "sara@example.com", "student", "s3cret")
	a := NewAuthService("test-secret")

	for _, body := range []string{
		`{"email":"sara@example.com","password":"nope"}`,
		`{"email":"ghost@example.com","password":"s3cret"}`,
	} {
		rec := httptest.NewRecorder()
		LoginHandler(a, store)(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: want 401, got %d", body, rec.Code)
		}
	}
}

func TestOptionalIdentity(t *testing.T) {
	a := NewAuthService("test-secret")
	h := OptionalIdentity(a)(echo)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Body.String() != "role=" {
		t.Fatalf("no token should be anonymous, got %s", rec.Body)
	}

	tok, _ := a.IssueJWT(7, "teacher")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?access_token="+tok, nil))
	if rec.Body.String() != "role=teacher" {
		t.Fatalf("query token: got %s", rec.Body)
	}

	other, _ := NewAuthService("other-secret").IssueJWT(7, "admin")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("foreign signature: want 401, got %d", rec.Code)
	}
}

func TestAttachRoleFromDB(t *testing.T) {
	store := course.NewMemoryStore()
	u := seedUser(t, store, "tom@example.com", "teacher", "pw")
	h := AttachRoleFromDB(store, false)(echo)

	// token claims admin, DB says teacher
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(identity.WithIdentity(req.Context(), identity.Admin{ID: u.ID}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Body.String() != "role=teacher" {
		t.Fatalf("db role must win, got %s", rec.Body)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(identity.WithIdentity(req.Context(), identity.Student{ID: 999}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("deleted user: want 403, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "role=" {
		t.Fatalf("anonymous should pass: %d %s", rec.Code, rec.Body)
	}
}

func TestRegisterHandler(t *testing.T) {
	store := course.NewMemoryStore()
	h := RegisterHandler(store)

	body := `{"email":"new@example.com","password":"longenough","firstname":"New","lastname":"Kid"}`
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body)
	}
	u, err := store.GetUserByEmail(context.Background(), "new@example.com")
	if err != nil || u.Role != "student" {
		t.Fatalf("stored user: %+v (%v)", u, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("longenough")) != nil {
		t.Fatal("password not hashed with bcrypt")
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email: want 409, got %d", rec.Code)
	}

	for _, bad := range []string{
		`{"email":"x@example.com","password":"longenough","firstname":"A","lastname":"B","role":"admin"}`,
		`{"email":"not-an-email","password":"longenough","firstname":"A","lastname":"B"}`,
		`{"email":"y@example.com","password":"123","firstname":"A","lastname":"B"}`,
	} {
		rec = httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(bad)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: want 400, got %d", bad, rec.Code)
		}
	}
}
