package auth

import (
	"net/http"
	"strings"
)

// Middleware extracts a bearer token from the Authorization header and, when
// valid, attaches the user id to the request context. Requests without a
// valid token pass through unauthenticated; each endpoint decides whether
// identity is required.
func Middleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if token, ok := strings.CutPrefix(header, "Bearer "); ok {
				if userID, err := svc.VerifyToken(strings.TrimSpace(token)); err == nil {
					r = r.WithContext(WithUserID(r.Context(), userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
