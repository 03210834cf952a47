package http

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"walletwatch/internal/log"
)

const headerRequestID = "X-Request-ID"

// responseRecorder captures the status code written by a handler so the
// request log line can include it.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(buf)
}

// withTracing assigns each request an ID, logs it on completion and puts a
// request-scoped logger into the context for handlers to use.
func (s *Server) withTracing(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = generateRequestID()
		}
		w.Header().Set(headerRequestID, requestID)

		logger := s.logger.With(
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, extractClientIP(r),
		)

		recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()

		next(recorder, r.WithContext(log.WithLogger(r.Context(), logger)))

		logger.Info("request completed",
			log.FieldStatusCode, recorder.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
		)
	}
}
