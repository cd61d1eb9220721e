package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/campus-lostfound/internal/api/handlers"
	"github.com/baharkarakas/campus-lostfound/internal/api/httpx"
	"github.com/baharkarakas/campus-lostfound/internal/config"
	"github.com/baharkarakas/campus-lostfound/internal/metrics"
	"github.com/baharkarakas/campus-lostfound/internal/middleware"
	"github.com/baharkarakas/campus-lostfound/internal/services"
)

type RouterDeps struct {
	Cfg     config.Config
	UserSvc *services.UserService
	PostSvc *services.PostService
	Log     *slog.Logger
	// UploadsDir is served under Cfg.UploadsURLPrefix; empty disables it.
	UploadsDir string
}

func NewRouter(d RouterDeps) http.Handler {
	authH := handlers.NewAuthHandler(d.UserSvc, d.Cfg.CookieName, d.Cfg.CookieSecure)
	postH := handlers.NewPostHandler(d.PostSvc, d.Cfg.MaxUploadBytes)
	authMW := middleware.NewAuthMiddleware(d.UserSvc, d.Cfg.CookieName)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover(d.Log), middleware.AccessLog(d.Log), middleware.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: !allowsAny(d.Cfg.CORSOrigins),
		MaxAge:           300,
	}))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.OK(w, http.StatusOK, "ok", nil)
	})
	r.Handle("/metrics", metrics.Handler())

	if d.UploadsDir != "" {
		prefix := d.Cfg.UploadsURLPrefix
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		files := http.StripPrefix(prefix, http.FileServer(http.Dir(d.UploadsDir)))
		r.Get(prefix+"*", func(w http.ResponseWriter, r *http.Request) {
			// no directory listings
			if strings.HasSuffix(r.URL.Path, "/") {
				httpx.WriteError(w, http.StatusNotFound, "not found", nil)
				return
			}
			files.ServeHTTP(w, r)
		})
	}

	r.Route("/api", func(r chi.Router) {
		// ---------- public ----------
		r.Post("/register", authH.Register)
		r.Post("/login", authH.Login)
		r.Get("/get_lost_items", postH.List)
		r.Get("/get_item_detail/{id}", postH.Detail)

		// ---------- session required ----------
		r.Group(func(r chi.Router) {
			r.Use(authMW.Auth)

			r.Post("/logout", authH.Logout)
			r.Get("/user_info", authH.UserInfo)
			r.Post("/post", postH.Create)
			r.Get("/my_posts", postH.Mine)
			r.Post("/edit_item", postH.Edit)
			r.Post("/delete_item", postH.Delete)
			r.Post("/update_status", postH.SetStatus)
			r.Post("/update_item", postH.SetStatus)
		})
	})

	return r
}

func allowsAny(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
