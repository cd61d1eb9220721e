package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/baharkarakas/campus-lostfound/internal/common"
	"github.com/baharkarakas/campus-lostfound/internal/db"
	"github.com/baharkarakas/campus-lostfound/internal/models"
	"github.com/baharkarakas/campus-lostfound/internal/repository"
)

type usersRepo struct {
	db  *sql.DB
	d   db.Dialect
	now func() time.Time
}

func NewUsers(conn *sql.DB, d db.Dialect, opts ...Option) repository.Users {
	o := buildOptions(opts)
	return &usersRepo{db: conn, d: d, now: o.now}
}

func (r *usersRepo) Create(ctx context.Context, username, hash string) (models.User, error) {
	u := models.User{Username: username, PasswordHash: hash, CreatedAt: r.now().UTC()}
	err := r.db.QueryRowContext(ctx,
		r.d.Rebind(`INSERT INTO users(username, password_hash, created_at) VALUES (?, ?, ?) RETURNING id`),
		username, hash, r.d.TimeArg(u.CreatedAt),
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("username %q: %w", username, common.ErrConflict)
		}
		return models.User{}, storageErr("create user", err)
	}
	return u, nil
}

const selectUser = `SELECT id, username, password_hash, created_at FROM users`

func (r *usersRepo) GetByID(ctx context.Context, id int64) (models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = ?`, id)
}

func (r *usersRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE username = ?`, username)
}

func (r *usersRepo) getOne(ctx context.Context, q string, arg any) (models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, r.d.Rebind(q), arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, db.ScanTime(&u.CreatedAt))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user: %w", common.ErrNotFound)
	}
	if err != nil {
		return models.User{}, storageErr("get user", err)
	}
	return u, nil
}
