package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

func NoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger logs one line per request at debug level, or at warn for
// server errors.
func RequestLogger(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		}
		if rec.status >= http.StatusInternalServerError {
			logger.Warn("request", fields...)
			return
		}
		logger.Debug("request", fields...)
	})
}

// Handler wraps the API routes with the standard middleware. Requests that
// run past timeout get a 503 with a JSON body.
func (s *Server) Handler(timeout time.Duration, staticDir string) http.Handler {
	mux := s.Routes()
	if staticDir != "" {
		fs := http.FileServer(http.Dir(staticDir))
		mux.Handle("/static/", NoCache(http.StripPrefix("/static/", fs)))
	}
	var h http.Handler = mux
	if timeout > 0 {
		h = Timeout(h, timeout)
	}
	return RequestLogger(s.logger, NoCache(h))
}

// Timeout cuts requests off after d with a JSON 503. The content type is
// set up front; responses that finish in time replace it with their own.
func Timeout(next http.Handler, d time.Duration) http.Handler {
	th := http.TimeoutHandler(next, d, `{"error":"request timed out","status":503}`)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		th.ServeHTTP(w, r)
	})
}
