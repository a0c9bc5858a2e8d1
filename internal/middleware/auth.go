package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rpattn/signalcat/internal/auth"
)

// TokenParser verifies a bearer token and returns the actor it belongs to.
type TokenParser interface {
	Parse(token string) (string, error)
}

// AuthMiddleware requires a valid bearer token and places the resolved actor
// on the request context for the handlers and the versioning engine.
func AuthMiddleware(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeUnauthorized(w, "missing bearer token")
				return
			}
			actor, err := parser.Parse(token)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.ContextWithActor(r.Context(), actor)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
