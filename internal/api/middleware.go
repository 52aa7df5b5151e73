package api

import (
	"crypto/subtle"
	"log"
	"net/http"
)

// AuthMiddleware guards the admin API with the shared X-Api-Key secret.
// An unset key on the server side rejects everything rather than opening up.
func AuthMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				log.Printf("AuthMiddleware: ADMIN_API_KEY not configured, rejecting %s %s", r.Method, r.URL.Path)
				http.Error(w, "Unauthorized: API key not configured", http.StatusUnauthorized)
				return
			}
			provided := r.Header.Get("X-Api-Key")
			if provided == "" {
				http.Error(w, "Unauthorized: Missing X-Api-Key header", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				log.Printf("AuthMiddleware: invalid API key on %s %s", r.Method, r.URL.Path)
				http.Error(w, "Unauthorized: Invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
