package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/campus-lostfound/internal/common"
	"github.com/baharkarakas/campus-lostfound/internal/db"
	"github.com/baharkarakas/campus-lostfound/internal/models"
	"github.com/baharkarakas/campus-lostfound/internal/search"
)

type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

func newRepos(t *testing.T, clock *stepClock) Repositories {
	t.Helper()
	ctx := context.Background()
	h, err := db.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "lf.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	require.NoError(t, db.RunMigrations(ctx, h.DB, h.Dialect))
	return NewRepositories(h, WithClock(clock.Now))
}

func newClock(step time.Duration) *stepClock {
	return &stepClock{t: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC), step: step}
}

func mustUser(t *testing.T, r Repositories, name string) models.User {
	t.Helper()
	u, err := r.Users.Create(context.Background(), name, "hash")
	require.NoError(t, err)
	return u
}

func mustPost(t *testing.T, r Repositories, owner int64, kind models.PostKind, name, desc, loc, cat string) int64 {
	t.Helper()
	id, err := r.Posts.Create(context.Background(), models.Post{
		UserID: owner, Kind: kind, ItemName: name, Description: desc, Location: loc, Category: cat,
	})
	require.NoError(t, err)
	return id
}

func ids(ps []models.Post) []int64 {
	out := make([]int64, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestUsers_CreateAndLookup(t *testing.T) {
	r := newRepos(t, newClock(time.Second))
	ctx := context.Background()

	u := mustUser(t, r, "alice")
	assert.NotZero(t, u.ID)

	got, err := r.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.True(t, got.CreatedAt.Equal(u.CreatedAt))

	_, err = r.Users.Create(ctx, "alice", "other")
	require.ErrorIs(t, err, common.ErrConflict)

	_, err = r.Users.GetByID(ctx, 999)
	require.ErrorIs(t, err, common.ErrNotFound)
	_, err = r.Users.GetByUsername(ctx, "bob")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestPosts_CreateAndGet(t *testing.T) {
	r := newRepos(t, newClock(time.Second))
	ctx := context.Background()
	u := mustUser(t, r, "alice")

	id, err := r.Posts.Create(ctx, models.Post{
		UserID: u.ID, Kind: " Lost ", ItemName: " Blue umbrella ", Category: "accessories",
		Location: "Library", OccurredAt: "2025-04-30 17:00", ImageRef: "a.png",
		Status: models.StatusFound,
	})
	require.NoError(t, err)

	p, err := r.Posts.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, "alice", p.Publisher)
	assert.Equal(t, models.KindLost, p.Kind)
	assert.Equal(t, "Blue umbrella", p.ItemName)
	assert.Equal(t, "a.png", p.ImageRef)
	assert.Equal(t, "2025-04-30 17:00", p.OccurredAt)
	assert.Equal(t, models.StatusActive, p.Status, "new posts always start active")
	assert.True(t, p.CreatedAt.Equal(time.Date(2025, 5, 1, 9, 0, 1, 0, time.UTC)))

	_, err = r.Posts.GetByID(ctx, id+100)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestPosts_CreateRejectsMissingFields(t *testing.T) {
	r := newRepos(t, newClock(time.Second))
	ctx := context.Background()
	u := mustUser(t, r, "alice")

	for name, p := range map[string]models.Post{
		"empty item_name": {UserID: u.ID, Kind: models.KindLost, ItemName: "  ", Location: "Gym"},
		"empty location":  {UserID: u.ID, Kind: models.KindLost, ItemName: "Key"},
		"bad type":        {UserID: u.ID, Kind: "stolen", ItemName: "Key", Location: "Gym"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := r.Posts.Create(ctx, p)
			require.ErrorIs(t, err, common.ErrValidation)
		})
	}

	_, total, err := r.Posts.Search(ctx, search.Query{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total, "nothing persisted")
}

func TestPosts_UpdateOwnership(t *testing.T) {
	r := newRepos(t, newClock(time.Second))
	ctx := context.Background()
	owner := mustUser(t, r, "alice")
	other := mustUser(t, r, "bob")
	id := mustPost(t, r, owner.ID, models.KindLost, "Wallet", "brown leather", "Cafeteria", "personal")

	before, err := r.Posts.GetByID(ctx, id)
	require.NoError(t, err)

	desc := "hacked"
	_, err = r.Posts.Update(ctx, other.ID, id, models.PostPatch{Description: &desc})
	require.ErrorIs(t, err, common.ErrForbidden)

	after, err := r.Posts.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	desc = "brown leather, student card inside"
	prev, err := r.Posts.Update(ctx, owner.ID, id, models.PostPatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "brown leather", prev.Description)

	after, err = r.Posts.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, desc, after.Description)
	assert.Equal(t, before.ItemName, after.ItemName)
	assert.Equal(t, before.Location, after.Location)
	assert.Equal(t, before.Status, after.Status)
}

func TestPosts_UpdateErrors(t *testing.T) {
	r := newRepos(t, newClock(time.Second))
	ctx := context.Background()
	owner := mustUser(t, r, "alice")
	other := mustUser(t, r, "bob")
	id := mustPost(t, r, owner.ID, models.KindLost, "Wallet", "", "Cafeteria", "")

	_, err := r.Posts.Update(ctx, owner.ID, id, models.PostPatch{})
	require.ErrorIs(t, err, common.ErrValidation)

	blank := " "
	_, err = r.Posts.Update(ctx, owner.ID, id, models.PostPatch{Location: &blank})
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = r.Posts.Update(ctx, other.ID, id, models.PostPatch{})
	require.ErrorIs(t, err, common.ErrForbidden, "ownership is checked before the patch")

	name := "Keys"
	_, err = r.Posts.Update(ctx, owner.ID, id+1, models.PostPatch{ItemName: &name})
	require.ErrorIs(t, err, common.ErrNotFound)

	kind := models.PostKind("FOUND")
	_, err = r.Posts.Update(ctx, owner.ID, id, models.PostPatch{Kind: &kind, ItemName: &name})
	require.NoError(t, err)
	p, err := r.Posts.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.KindFound, p.Kind)
	assert.Equal(t, "Keys", p.ItemName)
}

func TestPosts_Delete(t *testing.T) {
	r := newRepos(t, newClock(time.Second))
	ctx := context.Background()
	owner := mustUser(t, r, "alice")
	other := mustUser(t, r, "bob")
	id := mustPost(t, r, owner.ID, models.KindFound, "Phone", "", "Lab 3", "electronics")

	_, err := r.Posts.Delete(ctx, owner.ID, id+42)
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = r.Posts.Delete(ctx, other.ID, id)
	require.ErrorIs(t, err, common.ErrForbidden)
	_, err = r.Posts.GetByID(ctx, id)
	require.NoError(t, err, "still retrievable after a refused delete")

	gone, err := r.Posts.Delete(ctx, owner.ID, id)
	require.NoError(t, err)
	assert.Equal(t, "Phone", gone.ItemName)

	_, err = r.Posts.GetByID(ctx, id)
	require.ErrorIs(t, err, common.ErrNotFound)
	_, err = r.Posts.Delete(ctx, owner.ID, id)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestPosts_IDsAreNotReused(t *testing.T) {
	r := newRepos(t, newClock(time.Second))
	ctx := context.Background()
	u := mustUser(t, r, "alice")

	first := mustPost(t, r, u.ID, models.KindLost, "A", "", "X", "")
	_, err := r.Posts.Delete(ctx, u.ID, first)
	require.NoError(t, err)

	second := mustPost(t, r, u.ID, models.KindLost, "B", "", "X", "")
	assert.Greater(t, second, first)
}

func TestPosts_SetStatus(t *testing.T) {
	r := newRepos(t, newClock(time.Second))
	ctx := context.Background()
	owner := mustUser(t, r, "alice")
	other := mustUser(t, r, "bob")
	id := mustPost(t, r, owner.ID, models.KindLost, "Scarf", "", "Hall B", "")

	s, err := r.Posts.SetStatus(ctx, owner.ID, id, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFound, s)

	s, err = r.Posts.SetStatus(ctx, owner.ID, id, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, s, "two toggles restore the original")

	want := models.StatusFound
	s, err = r.Posts.SetStatus(ctx, owner.ID, id, &want)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFound, s)
	s, err = r.Posts.SetStatus(ctx, owner.ID, id, &want)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFound, s, "explicit value is idempotent")

	bad := models.PostStatus("expired")
	_, err = r.Posts.SetStatus(ctx, owner.ID, id, &bad)
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = r.Posts.SetStatus(ctx, other.ID, id, nil)
	require.ErrorIs(t, err, common.ErrForbidden)
	_, err = r.Posts.SetStatus(ctx, owner.ID, id+9, nil)
	require.ErrorIs(t, err, common.ErrNotFound)

	p, err := r.Posts.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFound, p.Status)
}

func seedSearch(t *testing.T, r Repositories) (a, b int64, posts map[string]int64) {
	t.Helper()
	a = mustUser(t, r, "alice").ID
	b = mustUser(t, r, "bob").ID
	posts = map[string]int64{
		"umbrella": mustPost(t, r, a, models.KindLost, "Blue Umbrella", "left near stairs", "Library", "accessories"),
		"wallet":   mustPost(t, r, b, models.KindFound, "Wallet", "black, found by the library door", "Gym", "personal"),
		"laptop":   mustPost(t, r, a, models.KindLost, "Laptop", "silver 13 inch", "Lab 2", "electronics"),
		"charger":  mustPost(t, r, b, models.KindFound, "Charger", "100% working usb_c", "Library annex", "electronics"),
		"keys":     mustPost(t, r, a, models.KindFound, "Keys", "", "Parking", "personal"),
	}
	return a, b, posts
}

func TestPosts_SearchFilters(t *testing.T) {
	r := newRepos(t, newClock(time.Second))
	ctx := context.Background()
	_, _, p := seedSearch(t, r)

	cases := []struct {
		name string
		q    search.Query
		want []int64
	}{
		{"all newest first", search.Query{Limit: 50},
			[]int64{p["keys"], p["charger"], p["laptop"], p["wallet"], p["umbrella"]}},
		{"keyword matches any text column", search.Query{Keyword: "library", Limit: 50},
			[]int64{p["charger"], p["wallet"], p["umbrella"]}},
		{"keyword ignores ascii case", search.Query{Keyword: "UMBRELLA", Limit: 50},
			[]int64{p["umbrella"]}},
		{"type and category are anded", search.Query{Kind: "found", Category: "electronics", Limit: 50},
			[]int64{p["charger"]}},
		{"keyword and type", search.Query{Keyword: "library", Kind: "lost", Limit: 50},
			[]int64{p["umbrella"]}},
		{"percent is literal", search.Query{Keyword: "%", Limit: 50},
			[]int64{p["charger"]}},
		{"underscore is literal", search.Query{Keyword: "13_inch", Limit: 50},
			[]int64{}},
		{"no match", search.Query{Keyword: "bicycle", Limit: 50},
			[]int64{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, total, err := r.Posts.Search(ctx, tc.q)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, ids(items)); diff != "" {
				t.Fatalf("ids mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, len(tc.want), total)
		})
	}
}

func TestPosts_SearchStatusFilter(t *testing.T) {
	r := newRepos(t, newClock(time.Second))
	ctx := context.Background()
	a, _, p := seedSearch(t, r)

	_, err := r.Posts.SetStatus(ctx, a, p["laptop"], nil)
	require.NoError(t, err)

	items, total, err := r.Posts.Search(ctx, search.Query{Status: "found", Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, []int64{p["laptop"]}, ids(items))
	assert.Equal(t, "alice", items[0].Publisher)
}

func TestPosts_SearchWindow(t *testing.T) {
	r := newRepos(t, newClock(time.Second))
	ctx := context.Background()
	seedSearch(t, r)

	all, total, err := r.Posts.Search(ctx, search.Query{Limit: 100})
	require.NoError(t, err)
	require.Equal(t, 5, total)

	var paged []models.Post
	for off := 0; off < total; off += 2 {
		page, n, err := r.Posts.Search(ctx, search.Query{Limit: 2, Offset: off})
		require.NoError(t, err)
		assert.Equal(t, total, n)
		paged = append(paged, page...)
	}
	if diff := cmp.Diff(ids(all), ids(paged)); diff != "" {
		t.Fatalf("windows do not tile the full result (-all +paged):\n%s", diff)
	}

	items, n, err := r.Posts.Search(ctx, search.Query{Limit: 0})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
	assert.Equal(t, 5, n)

	items, n, err = r.Posts.Search(ctx, search.Query{Limit: 10, Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 5, n)

	_, _, err = r.Posts.Search(ctx, search.Query{Limit: -1})
	require.ErrorIs(t, err, common.ErrValidation)
	_, _, err = r.Posts.Search(ctx, search.Query{Limit: 1, Offset: -3})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestPosts_EqualTimestampsKeepInsertionOrder(t *testing.T) {
	r := newRepos(t, newClock(0))
	ctx := context.Background()
	u := mustUser(t, r, "alice")

	var want []int64
	for _, name := range []string{"A", "B", "C", "D"} {
		want = append([]int64{mustPost(t, r, u.ID, models.KindLost, name, "", "X", "")}, want...)
	}

	for i := 0; i < 3; i++ {
		items, _, err := r.Posts.Search(ctx, search.Query{Limit: 10})
		require.NoError(t, err)
		require.Equal(t, want, ids(items))
	}
}

func TestPosts_ListByOwner(t *testing.T) {
	r := newRepos(t, newClock(time.Second))
	ctx := context.Background()
	a, b, p := seedSearch(t, r)

	mine, err := r.Posts.ListByOwner(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []int64{p["keys"], p["laptop"], p["umbrella"]}, ids(mine))

	theirs, err := r.Posts.ListByOwner(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []int64{p["charger"], p["wallet"]}, ids(theirs))

	none, err := r.Posts.ListByOwner(ctx, 777)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

var postCols = []string{"id", "user_id", "type", "item_name", "item_category", "description",
	"image", "occurred_at", "location", "status", "created_at", "username"}

func newMock(t *testing.T) (Repositories, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return Repositories{
		Users: NewUsers(conn, db.SQLite),
		Posts: NewPosts(conn, db.SQLite),
	}, mock
}

func TestPosts_DriverFailuresAreStorageErrors(t *testing.T) {
	ctx := context.Background()
	diskErr := errors.New("disk I/O error")

	t.Run("get", func(t *testing.T) {
		r, mock := newMock(t)
		mock.ExpectQuery("SELECT p.id").WillReturnError(diskErr)

		_, err := r.Posts.GetByID(ctx, 1)
		require.ErrorIs(t, err, common.ErrStorage)
		require.ErrorIs(t, err, diskErr)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("search count", func(t *testing.T) {
		r, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT COUNT").WillReturnError(diskErr)
		mock.ExpectRollback()

		_, _, err := r.Posts.Search(ctx, search.Query{Limit: 5})
		require.ErrorIs(t, err, common.ErrStorage)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin", func(t *testing.T) {
		r, mock := newMock(t)
		mock.ExpectBegin().WillReturnError(diskErr)

		_, err := r.Posts.Delete(ctx, 1, 1)
		require.ErrorIs(t, err, common.ErrStorage)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit", func(t *testing.T) {
		r, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT p.id").WithArgs(7).WillReturnRows(
			sqlmock.NewRows(postCols).AddRow(7, 1, "lost", "Key", "", "", "", "", "Gym", "active", time.Now(), "alice"))
		mock.ExpectExec("DELETE FROM posts").WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit().WillReturnError(diskErr)

		_, err := r.Posts.Delete(ctx, 1, 7)
		require.ErrorIs(t, err, common.ErrStorage)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("forbidden rolls back without writing", func(t *testing.T) {
		r, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT p.id").WithArgs(7).WillReturnRows(
			sqlmock.NewRows(postCols).AddRow(7, 2, "lost", "Key", "", "", "", "", "Gym", "active", time.Now(), "bob"))
		mock.ExpectRollback()

		_, err := r.Posts.Delete(ctx, 1, 7)
		require.ErrorIs(t, err, common.ErrForbidden)
		require.NotErrorIs(t, err, common.ErrStorage)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("user insert", func(t *testing.T) {
		r, mock := newMock(t)
		mock.ExpectQuery("INSERT INTO users").WillReturnError(diskErr)

		_, err := r.Users.Create(ctx, "alice", "h")
		require.ErrorIs(t, err, common.ErrStorage)
		require.NotErrorIs(t, err, common.ErrConflict)
	})
}
