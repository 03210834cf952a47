package http

import (
	"crypto/subtle"
	"net/http"

	"walletwatch/internal/log"
)

// requireAPIKey gates a handler behind the static API key. The key is read
// from X-API-Key or, failing that, the Authorization header. A server with
// no key configured refuses authenticated routes outright rather than
// running open.
func (s *Server) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			log.FromContext(r.Context()).Warn("WALLETWATCH_API_KEY not configured")
			respondError(w, http.StatusInternalServerError, "API authentication not properly configured")
			return
		}

		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.Header.Get("Authorization")
		}
		if key == "" {
			respondError(w, http.StatusUnauthorized, "API key is required")
			return
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
			respondError(w, http.StatusUnauthorized, "Invalid API key")
			return
		}

		next(w, r)
	}
}
