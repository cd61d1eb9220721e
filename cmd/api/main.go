package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baharkarakas/campus-lostfound/internal/api"
	"github.com/baharkarakas/campus-lostfound/internal/auth"
	"github.com/baharkarakas/campus-lostfound/internal/config"
	"github.com/baharkarakas/campus-lostfound/internal/db"
	"github.com/baharkarakas/campus-lostfound/internal/logger"
	"github.com/baharkarakas/campus-lostfound/internal/metrics"
	"github.com/baharkarakas/campus-lostfound/internal/repository/boltstore"
	"github.com/baharkarakas/campus-lostfound/internal/repository/sqlstore"
	"github.com/baharkarakas/campus-lostfound/internal/search"
	"github.com/baharkarakas/campus-lostfound/internal/services"
	"github.com/baharkarakas/campus-lostfound/internal/storage"
	"github.com/baharkarakas/campus-lostfound/internal/worker"
)

const sessionPurgeEvery = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer h.Close()

	if cfg.Migrate {
		if err := db.RunMigrations(ctx, h.DB, h.Dialect); err != nil {
			return err
		}
	}

	sessions, err := boltstore.Open(cfg.SessionDBPath)
	if err != nil {
		return err
	}
	defer sessions.Close()

	images, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}
	uploadsDir := ""
	if local, ok := images.(*storage.Local); ok {
		uploadsDir = local.Dir()
	}

	repos := sqlstore.NewRepositories(h)
	wp := worker.NewPool(cfg.Workers, log)
	defer wp.Stop()

	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	userSvc := services.NewUserService(repos.Users, sessions, tm, cfg.SessionTTL, log)
	postSvc := services.NewPostService(repos.Posts, images, wp,
		search.Limits{Default: cfg.SearchDefaultLimit, Max: cfg.SearchMaxLimit},
		cfg.MaxUploadBytes, log)

	metrics.Init()
	r := api.NewRouter(api.RouterDeps{
		Cfg:        cfg,
		UserSvc:    userSvc,
		PostSvc:    postSvc,
		Log:        log,
		UploadsDir: uploadsDir,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go purgeSessions(ctx, userSvc, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "db", cfg.DBDriver, "images", cfg.ImageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func purgeSessions(ctx context.Context, us *services.UserService, log *slog.Logger) {
	t := time.NewTicker(sessionPurgeEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := us.PurgeSessions(ctx); err != nil {
				log.Warn("session purge failed", "err", err)
			}
		}
	}
}
