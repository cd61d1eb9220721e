package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/baharkarakas/campus-lostfound/internal/auth"
	"github.com/baharkarakas/campus-lostfound/internal/common"
	"github.com/baharkarakas/campus-lostfound/internal/models"
	repo "github.com/baharkarakas/campus-lostfound/internal/repository"
)

type UserService struct {
	users    repo.Users
	sessions repo.Sessions
	tm       *auth.TokenManager
	ttl      time.Duration
	log      *slog.Logger
	now      func() time.Time
}

func NewUserService(users repo.Users, sessions repo.Sessions, tm *auth.TokenManager, ttl time.Duration, log *slog.Logger) *UserService {
	return &UserService{users: users, sessions: sessions, tm: tm, ttl: ttl, log: log, now: time.Now}
}

func (s *UserService) Register(ctx context.Context, username, password string) (models.User, error) {
	u := models.User{Username: username}
	if err := u.Validate(password); err != nil {
		return models.User{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.users.Create(ctx, u.Username, hash)
	if err != nil {
		return models.User{}, err
	}
	s.log.Info("user registered", "user_id", created.ID, "username", created.Username)
	return created, nil
}

// LoginResult is what a successful login hands to the transport.
type LoginResult struct {
	Token   string
	Session models.Session
	User    models.User
}

// Login never says which half of the credentials was wrong.
func (s *UserService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, common.ErrNotFound) {
		return LoginResult{}, common.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := auth.VerifyPassword(password, u.PasswordHash); err != nil {
		return LoginResult{}, common.ErrInvalidCredentials
	}

	now := s.now().UTC()
	sess := models.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Username:  u.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return LoginResult{}, err
	}
	tok, err := s.tm.Generate(u.ID, sess.ID, now, sess.ExpiresAt)
	if err != nil {
		_ = s.sessions.Delete(ctx, sess.ID)
		return LoginResult{}, fmt.Errorf("sign session token: %w", err)
	}
	s.log.Info("user logged in", "user_id", u.ID)
	return LoginResult{Token: tok, Session: sess, User: u}, nil
}

// Authenticate resolves a session token to its live session. Any failure is
// reported as ErrUnauthenticated except storage trouble.
func (s *UserService) Authenticate(ctx context.Context, token string) (models.Session, error) {
	claims, err := s.tm.Parse(token)
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: %v", common.ErrUnauthenticated, err)
	}
	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if errors.Is(err, common.ErrNotFound) {
		return models.Session{}, fmt.Errorf("%w: session revoked", common.ErrUnauthenticated)
	}
	if err != nil {
		return models.Session{}, err
	}
	if sess.UserID != claims.UserID {
		return models.Session{}, fmt.Errorf("%w: session mismatch", common.ErrUnauthenticated)
	}
	if sess.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, sess.ID)
		return models.Session{}, fmt.Errorf("%w: session expired", common.ErrUnauthenticated)
	}
	return sess, nil
}

func (s *UserService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.log.Info("user logged out", "session_id", sessionID)
	return nil
}

func (s *UserService) Me(ctx context.Context, userID int64) (models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		// account vanished under a live session
		return models.User{}, fmt.Errorf("%w: unknown user", common.ErrUnauthenticated)
	}
	return u, err
}

// PurgeSessions drops expired sessions; run it periodically.
func (s *UserService) PurgeSessions(ctx context.Context) (int, error) {
	n, err := s.sessions.PurgeExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Debug("expired sessions purged", "count", n)
	}
	return n, nil
}
