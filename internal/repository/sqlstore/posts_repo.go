package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/baharkarakas/campus-lostfound/internal/api/validate"
	"github.com/baharkarakas/campus-lostfound/internal/common"
	"github.com/baharkarakas/campus-lostfound/internal/db"
	"github.com/baharkarakas/campus-lostfound/internal/models"
	"github.com/baharkarakas/campus-lostfound/internal/repository"
	"github.com/baharkarakas/campus-lostfound/internal/search"
)

type postsRepo struct {
	db  *sql.DB
	d   db.Dialect
	now func() time.Time
}

func NewPosts(conn *sql.DB, d db.Dialect, opts ...Option) repository.Posts {
	o := buildOptions(opts)
	return &postsRepo{db: conn, d: d, now: o.now}
}

const (
	postSelect = `SELECT p.id, p.user_id, p.type, p.item_name, p.item_category, p.description,
       p.image, p.occurred_at, p.location, p.status, p.created_at, u.username`
	postFrom = `
  FROM posts p
  JOIN users u ON u.id = p.user_id`
	// newest first; equal timestamps fall back to insertion order
	postOrder = `
 ORDER BY p.created_at DESC, p.id DESC`
)

var postColumns = search.Columns{
	ItemName:    "p.item_name",
	Description: "p.description",
	Location:    "p.location",
	Kind:        "p.type",
	Category:    "p.item_category",
	Status:      "p.status",
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (models.Post, error) {
	var p models.Post
	err := s.Scan(&p.ID, &p.UserID, &p.Kind, &p.ItemName, &p.Category, &p.Description,
		&p.ImageRef, &p.OccurredAt, &p.Location, &p.Status, db.ScanTime(&p.CreatedAt), &p.Publisher)
	return p, err
}

func (r *postsRepo) Create(ctx context.Context, p models.Post) (int64, error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := r.db.QueryRowContext(ctx, r.d.Rebind(`
INSERT INTO posts (user_id, type, item_name, item_category, description, image, occurred_at, location, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`),
		p.UserID, string(p.Kind), p.ItemName, p.Category, p.Description, p.ImageRef,
		p.OccurredAt, p.Location, string(models.StatusActive), r.d.TimeArg(r.now()),
	).Scan(&id)
	if err != nil {
		return 0, storageErr("create post", err)
	}
	return id, nil
}

func (r *postsRepo) GetByID(ctx context.Context, id int64) (models.Post, error) {
	return r.get(ctx, r.db, id)
}

func (r *postsRepo) get(ctx context.Context, q db.DBTX, id int64) (models.Post, error) {
	p, err := scanPost(q.QueryRowContext(ctx, r.d.Rebind(postSelect+postFrom+`
 WHERE p.id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, fmt.Errorf("post %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return models.Post{}, storageErr("get post", err)
	}
	return p, nil
}

// owned loads the post and checks that actorID owns it.
func (r *postsRepo) owned(ctx context.Context, tx db.DBTX, actorID, id int64) (models.Post, error) {
	p, err := r.get(ctx, tx, id)
	if err != nil {
		return models.Post{}, err
	}
	if p.UserID != actorID {
		return models.Post{}, fmt.Errorf("post %d: %w", id, common.ErrForbidden)
	}
	return p, nil
}

// Search counts every match and returns one window of them. Both statements
// run in the same transaction so total and items agree.
func (r *postsRepo) Search(ctx context.Context, q search.Query) ([]models.Post, int, error) {
	var errs validate.Errs
	errs.Add(validate.MinInt("limit", int64(q.Limit), 0))
	errs.Add(validate.MinInt("offset", int64(q.Offset), 0))
	if err := errs.OrNil(); err != nil {
		return nil, 0, err
	}

	where, args := q.Where(postColumns, r.d.Like())
	from := postFrom
	if where != "" {
		from += "\n WHERE " + where
	}

	items := []models.Post{}
	var total int
	err := inTx(ctx, r.db, "search posts", func(tx db.DBTX) error {
		if err := tx.QueryRowContext(ctx, r.d.Rebind(`SELECT COUNT(*)`+from), args...).Scan(&total); err != nil {
			return storageErr("count posts", err)
		}
		if q.Limit == 0 || q.Offset >= total {
			return nil
		}
		page := append(append([]any{}, args...), q.Limit, q.Offset)
		var err error
		items, err = r.list(ctx, tx, postSelect+from+postOrder+`
 LIMIT ? OFFSET ?`, page...)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *postsRepo) ListByOwner(ctx context.Context, ownerID int64) ([]models.Post, error) {
	return r.list(ctx, r.db, postSelect+postFrom+`
 WHERE p.user_id = ?`+postOrder, ownerID)
}

func (r *postsRepo) list(ctx context.Context, q db.DBTX, query string, args ...any) ([]models.Post, error) {
	rows, err := q.QueryContext(ctx, r.d.Rebind(query), args...)
	if err != nil {
		return nil, storageErr("list posts", err)
	}
	defer rows.Close()

	out := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, storageErr("scan post", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list posts", err)
	}
	return out, nil
}

func (r *postsRepo) Update(ctx context.Context, actorID, id int64, patch models.PostPatch) (models.Post, error) {
	patch.Normalize()
	var prev models.Post
	err := inTx(ctx, r.db, "update post", func(tx db.DBTX) error {
		var err error
		if prev, err = r.owned(ctx, tx, actorID, id); err != nil {
			return err
		}
		if err := patch.Validate(); err != nil {
			return err
		}
		set, args := patchSet(patch)
		args = append(args, id)
		if _, err := tx.ExecContext(ctx, r.d.Rebind(`UPDATE posts SET `+set+` WHERE id = ?`), args...); err != nil {
			return storageErr("update post", err)
		}
		return nil
	})
	if err != nil {
		return models.Post{}, err
	}
	return prev, nil
}

func patchSet(p models.PostPatch) (string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Kind != nil {
		add("type", string(*p.Kind))
	}
	if p.ItemName != nil {
		add("item_name", *p.ItemName)
	}
	if p.Category != nil {
		add("item_category", *p.Category)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.ImageRef != nil {
		add("image", *p.ImageRef)
	}
	if p.OccurredAt != nil {
		add("occurred_at", *p.OccurredAt)
	}
	if p.Location != nil {
		add("location", *p.Location)
	}
	return strings.Join(sets, ", "), args
}

func (r *postsRepo) Delete(ctx context.Context, actorID, id int64) (models.Post, error) {
	var gone models.Post
	err := inTx(ctx, r.db, "delete post", func(tx db.DBTX) error {
		var err error
		if gone, err = r.owned(ctx, tx, actorID, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, r.d.Rebind(`DELETE FROM posts WHERE id = ?`), id); err != nil {
			return storageErr("delete post", err)
		}
		return nil
	})
	if err != nil {
		return models.Post{}, err
	}
	return gone, nil
}

func (r *postsRepo) SetStatus(ctx context.Context, actorID, id int64, want *models.PostStatus) (models.PostStatus, error) {
	var next models.PostStatus
	err := inTx(ctx, r.db, "set post status", func(tx db.DBTX) error {
		cur, err := r.owned(ctx, tx, actorID, id)
		if err != nil {
			return err
		}
		next = cur.Status.Toggled()
		if want != nil {
			if f := validate.OneOf("status", string(*want), string(models.StatusActive), string(models.StatusFound)); f != nil {
				return validate.Errs{*f}
			}
			next = *want
		}
		if _, err := tx.ExecContext(ctx, r.d.Rebind(`UPDATE posts SET status = ? WHERE id = ?`), string(next), id); err != nil {
			return storageErr("set post status", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return next, nil
}
