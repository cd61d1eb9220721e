// Package boltstore keeps login sessions in a bbolt file next to the post
// database.
package boltstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/baharkarakas/campus-lostfound/internal/common"
	"github.com/baharkarakas/campus-lostfound/internal/models"
	"github.com/baharkarakas/campus-lostfound/internal/repository"
)

const bucketSessions = "sessions"

type SessionsRepo struct {
	db *bbolt.DB
}

var _ repository.Sessions = (*SessionsRepo)(nil)

// Open creates the file (and its directory) if needed.
func Open(path string) (*SessionsRepo, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create session dir: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSessions))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &SessionsRepo{db: db}, nil
}

func (r *SessionsRepo) Close() error { return r.db.Close() }

func (r *SessionsRepo) Put(ctx context.Context, s models.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	err = r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketSessions)).Put([]byte(s.ID), raw)
	})
	if err != nil {
		return fmt.Errorf("put session: %w", errors.Join(common.ErrStorage, err))
	}
	return nil
}

func (r *SessionsRepo) Get(ctx context.Context, id string) (models.Session, error) {
	if err := ctx.Err(); err != nil {
		return models.Session{}, err
	}
	var s models.Session
	err := r.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(bucketSessions)).Get([]byte(id))
		if raw == nil {
			return common.ErrNotFound
		}
		return json.Unmarshal(raw, &s)
	})
	switch {
	case errors.Is(err, common.ErrNotFound):
		return models.Session{}, fmt.Errorf("session: %w", common.ErrNotFound)
	case err != nil:
		return models.Session{}, fmt.Errorf("get session: %w", errors.Join(common.ErrStorage, err))
	}
	return s, nil
}

// Delete is a no-op for unknown ids.
func (r *SessionsRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketSessions)).Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", errors.Join(common.ErrStorage, err))
	}
	return nil
}

// PurgeExpired drops every session that has expired at now and reports how
// many were removed. Undecodable records are dropped too.
func (r *SessionsRepo) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketSessions))
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var s models.Session
			if err := json.Unmarshal(v, &s); err != nil || s.Expired(now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		n = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", errors.Join(common.ErrStorage, err))
	}
	return n, nil
}
