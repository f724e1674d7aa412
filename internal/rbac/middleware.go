package rbac

import (
	"net/http"

	"github.com/mind-engage/mindengage-courses/internal/identity"
)

var defaultChecker = NewChecker(nil)

// Require enforces a single permission for the identity in the request context.
func Require(perm string) func(http.Handler) http.Handler {
	return RequireAny(perm)
}

// RequireAny enforces that the caller's role has at least one of the permissions.
// Anonymous callers get 401, known roles without the permission get 403.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := identity.FromContext(r.Context()).Role()
			if role == identity.RoleAnonymous {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !defaultChecker.Any(role, perms...) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
