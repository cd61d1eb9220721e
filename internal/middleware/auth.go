package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/baharkarakas/campus-lostfound/internal/api/httpx"
	"github.com/baharkarakas/campus-lostfound/internal/common"
	"github.com/baharkarakas/campus-lostfound/internal/models"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Session, error)
}

type AuthMiddleware struct {
	auth       Authenticator
	cookieName string
}

func NewAuthMiddleware(a Authenticator, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{auth: a, cookieName: cookieName}
}

// Auth resolves the session cookie (or a Bearer token) and puts the caller
// into the request context. Requests without a live session get 401.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := m.token(r)
		if tok == "" {
			httpx.Fail(w, r, common.ErrUnauthenticated)
			return
		}
		sess, err := m.auth.Authenticate(r.Context(), tok)
		if err != nil {
			httpx.Fail(w, r, err)
			return
		}
		ctx := WithUser(r.Context(), UserCtx{UserID: sess.UserID, Username: sess.Username, SessionID: sess.ID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) token(r *http.Request) string {
	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	ah := r.Header.Get("Authorization")
	if len(ah) > 7 && strings.EqualFold(ah[:7], "bearer ") {
		return strings.TrimSpace(ah[7:])
	}
	return ""
}
