package auth

import (
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/identity"
)

// AttachRoleFromDB re-reads the caller from the users table so a role change
// takes effect before the token expires. Anonymous callers pass through.
// allowClaimFallback=true in dev/offline; false in prod.
func AttachRoleFromDB(users UserFinder, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var id int64
			switch who := identity.FromContext(ctx).(type) {
			case identity.Student:
				id = who.ID
			case identity.Teacher:
				id = who.ID
			case identity.Admin:
				id = who.ID
			case identity.Anonymous:
				next.ServeHTTP(w, r)
				return
			}

			u, err := users.GetUser(ctx, id)
			switch {
			case err == nil:
				// Authoritative DB role
				who := identity.FromClaims(strconv.FormatInt(u.ID, 10), u.Role)
				next.ServeHTTP(w, r.WithContext(identity.WithIdentity(ctx, who)))
			case apperr.Is(err, apperr.KindNotFound):
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				// Unknown DB error: in dev, be lenient; in prod, deny
				if allowClaimFallback {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
