package auth

import (
	"net/http"
	"strings"
)

// BearerToken extracts the token from "Authorization: Bearer ...". Certificate
// downloads opened in a new tab may pass it as ?access_token= instead.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("access_token")
}
