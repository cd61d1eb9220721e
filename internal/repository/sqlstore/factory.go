// Package sqlstore implements the user and post repositories on database/sql.
// The same queries serve SQLite and Postgres; placeholders are rebound per
// dialect.
package sqlstore

import (
	"time"

	"github.com/baharkarakas/campus-lostfound/internal/db"
	repo "github.com/baharkarakas/campus-lostfound/internal/repository"
)

type Repositories struct {
	Users repo.Users
	Posts repo.Posts
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the source of created_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func NewRepositories(h *db.Handle, opts ...Option) Repositories {
	return Repositories{
		Users: NewUsers(h.DB, h.Dialect, opts...),
		Posts: NewPosts(h.DB, h.Dialect, opts...),
	}
}
