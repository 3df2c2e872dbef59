package middleware

import (
	"net/http"

	"github.com/webdiner/webdiner/pkg/auth"
	"github.com/webdiner/webdiner/pkg/response"
)

// Auth rejects requests without a valid bearer token and stores the claims
// in the request context for auth.ClaimsFrom.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			response.Unauthorized(w)
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
	})
}
