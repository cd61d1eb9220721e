package handlers

import (
	"net/http"
	"time"

	"github.com/baharkarakas/campus-lostfound/internal/api/httpx"
	"github.com/baharkarakas/campus-lostfound/internal/common"
	"github.com/baharkarakas/campus-lostfound/internal/middleware"
	"github.com/baharkarakas/campus-lostfound/internal/services"
)

type AuthHandler struct {
	Svc          *services.UserService
	CookieName   string
	CookieSecure bool
}

func NewAuthHandler(svc *services.UserService, cookieName string, secure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, CookieName: cookieName, CookieSecure: secure}
}

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResp struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type loginResp struct {
	User      userResp  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.Fail(w, r, err)
		return
	}
	u, err := h.Svc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "registration successful", userResp{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.Fail(w, r, err)
		return
	}
	res, err := h.Svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.OK(w, http.StatusOK, "login successful", loginResp{
		User:      userResp{ID: res.User.ID, Username: res.User.Username, CreatedAt: res.User.CreatedAt},
		Token:     res.Token,
		ExpiresAt: res.Session.ExpiresAt,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.FromCtx(r.Context())
	if !ok {
		httpx.Fail(w, r, common.ErrUnauthenticated)
		return
	}
	if err := h.Svc.Logout(r.Context(), u.SessionID); err != nil {
		httpx.Fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.OK(w, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) UserInfo(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.FromCtx(r.Context())
	if !ok {
		httpx.Fail(w, r, common.ErrUnauthenticated)
		return
	}
	me, err := h.Svc.Me(r.Context(), u.UserID)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", userResp{ID: me.ID, Username: me.Username, CreatedAt: me.CreatedAt})
}
