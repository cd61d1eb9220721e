package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/baharkarakas/campus-lostfound/internal/api/httpx"
)

// AccessLog writes one line per request once it is served.
func AccessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.Info("http request",
				"method", r.Method,
				"route", routePattern(r),
				"status", rec.status,
				"took", time.Since(start),
				"request_id", httpx.RequestID(r.Context()),
			)
		})
	}
}
