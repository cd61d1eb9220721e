package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/baharkarakas/campus-lostfound/internal/api/httpx"
)

const maxRequestIDLen = 64

// RequestID keeps a caller supplied X-Request-Id or makes one up, and echoes
// it in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(httpx.WithRequestID(r.Context(), id)))
	})
}
