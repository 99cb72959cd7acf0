package middleware

import (
	"log"
	"net/http"
	"time"
)

// statusRecorder captures the status and body size a handler wrote so the
// access log can report them after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// Logger writes one access-log line per request: client address, method,
// path, status, response size, duration. The address is the same one the
// rate limiter keys on.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{
			ResponseWriter: w,
			status:         http.StatusOK,
		}

		next.ServeHTTP(rec, r)

		log.Printf(
			"%s %s %s %d %dB %s",
			ClientIP(r),
			r.Method,
			r.URL.Path,
			rec.status,
			rec.bytes,
			time.Since(start),
		)
	})
}
