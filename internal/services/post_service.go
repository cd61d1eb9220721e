package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/baharkarakas/campus-lostfound/internal/api/validate"
	"github.com/baharkarakas/campus-lostfound/internal/common"
	"github.com/baharkarakas/campus-lostfound/internal/metrics"
	"github.com/baharkarakas/campus-lostfound/internal/models"
	repo "github.com/baharkarakas/campus-lostfound/internal/repository"
	"github.com/baharkarakas/campus-lostfound/internal/search"
	"github.com/baharkarakas/campus-lostfound/internal/storage"
	"github.com/baharkarakas/campus-lostfound/internal/worker"
)

const imageCleanupTimeout = 30 * time.Second

// Upload is an image that came with a request.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// PostPage is one window of a listing plus the total number of matches.
type PostPage struct {
	Items  []models.Post `json:"items"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type PostService struct {
	posts     repo.Posts
	images    storage.Store
	pool      *worker.Pool
	limits    search.Limits
	maxUpload int64
	log       *slog.Logger
}

func NewPostService(posts repo.Posts, images storage.Store, pool *worker.Pool, limits search.Limits, maxUpload int64, log *slog.Logger) *PostService {
	return &PostService{posts: posts, images: images, pool: pool, limits: limits, maxUpload: maxUpload, log: log}
}

func (s *PostService) Limits() search.Limits { return s.limits }

// Create validates p, stores the image (if any) and persists the post owned
// by actorID. The image is stored first; if the row cannot be written it is
// released again.
func (s *PostService) Create(ctx context.Context, actorID int64, p models.Post, img *Upload) (models.Post, error) {
	p.ID = 0
	p.UserID = actorID
	p.ImageRef = ""
	p.Status = models.StatusActive
	p.Normalize()
	if err := p.Validate(); err != nil {
		return models.Post{}, err
	}

	if img != nil {
		ref, err := s.saveImage(ctx, img)
		if err != nil {
			return models.Post{}, err
		}
		p.ImageRef = ref
	}

	id, err := s.posts.Create(ctx, p)
	if err != nil {
		if p.ImageRef != "" {
			s.releaseImage(p.ImageRef)
		}
		return models.Post{}, err
	}
	metrics.PostOpsTotal.WithLabelValues("create").Inc()
	s.log.Info("post created", "post_id", id, "user_id", actorID, "type", p.Kind)
	return s.Get(ctx, id)
}

func (s *PostService) Get(ctx context.Context, id int64) (models.Post, error) {
	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return models.Post{}, err
	}
	s.withURL(ctx, &p)
	return p, nil
}

func (s *PostService) Search(ctx context.Context, q search.Query) (PostPage, error) {
	if err := q.Validate(s.limits); err != nil {
		return PostPage{}, err
	}
	items, total, err := s.posts.Search(ctx, q)
	if err != nil {
		return PostPage{}, err
	}
	for i := range items {
		s.withURL(ctx, &items[i])
	}
	metrics.SearchesTotal.Inc()
	return PostPage{Items: items, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

func (s *PostService) Mine(ctx context.Context, actorID int64) ([]models.Post, error) {
	items, err := s.posts.ListByOwner(ctx, actorID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		s.withURL(ctx, &items[i])
	}
	return items, nil
}

// Update applies patch and, when img is given, swaps the post's image. The
// replaced image is released after the row is written.
func (s *PostService) Update(ctx context.Context, actorID, id int64, patch models.PostPatch, img *Upload) (models.Post, error) {
	patch.ImageRef = nil
	if img != nil {
		// refuse before storing anything for a post the actor cannot edit
		cur, err := s.posts.GetByID(ctx, id)
		if err != nil {
			return models.Post{}, err
		}
		if cur.UserID != actorID {
			return models.Post{}, fmt.Errorf("post %d: %w", id, common.ErrForbidden)
		}
		ref, err := s.saveImage(ctx, img)
		if err != nil {
			return models.Post{}, err
		}
		patch.ImageRef = &ref
	}

	prev, err := s.posts.Update(ctx, actorID, id, patch)
	if err != nil {
		if patch.ImageRef != nil {
			s.releaseImage(*patch.ImageRef)
		}
		return models.Post{}, err
	}
	if patch.ImageRef != nil && prev.ImageRef != "" && prev.ImageRef != *patch.ImageRef {
		s.releaseImage(prev.ImageRef)
	}
	metrics.PostOpsTotal.WithLabelValues("update").Inc()
	s.log.Info("post updated", "post_id", id, "user_id", actorID)
	return s.Get(ctx, id)
}

// Delete removes the post; its image is released in the background and a
// failure there does not fail the call.
func (s *PostService) Delete(ctx context.Context, actorID, id int64) error {
	gone, err := s.posts.Delete(ctx, actorID, id)
	if err != nil {
		return err
	}
	if gone.ImageRef != "" {
		s.releaseImage(gone.ImageRef)
	}
	metrics.PostOpsTotal.WithLabelValues("delete").Inc()
	s.log.Info("post deleted", "post_id", id, "user_id", actorID)
	return nil
}

// SetStatus toggles when want is nil, otherwise sets want.
func (s *PostService) SetStatus(ctx context.Context, actorID, id int64, want *models.PostStatus) (models.PostStatus, error) {
	st, err := s.posts.SetStatus(ctx, actorID, id, want)
	if err != nil {
		return "", err
	}
	metrics.PostOpsTotal.WithLabelValues("status").Inc()
	s.log.Info("post status changed", "post_id", id, "user_id", actorID, "status", st)
	return st, nil
}

func (s *PostService) saveImage(ctx context.Context, img *Upload) (string, error) {
	if err := storage.CheckName(img.Filename); err != nil {
		return "", err
	}
	body := img.Body
	if s.maxUpload > 0 {
		if img.Size > s.maxUpload {
			return "", tooLarge(s.maxUpload)
		}
		body = io.LimitReader(body, s.maxUpload+1)
	}
	cr := &countingReader{r: body}
	ref, err := s.images.Save(ctx, img.Filename, cr)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return "", err
		}
		return "", fmt.Errorf("save image: %w", errors.Join(common.ErrStorage, err))
	}
	if s.maxUpload > 0 && cr.n > s.maxUpload {
		s.releaseImage(ref)
		return "", tooLarge(s.maxUpload)
	}
	return ref, nil
}

func tooLarge(max int64) error {
	return validate.Errs{{Field: "image", Msg: fmt.Sprintf("must be at most %d bytes", max)}}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// releaseImage deletes ref off the request path. Failures are logged and
// counted, never returned.
func (s *PostService) releaseImage(ref string) {
	job := func() {
		ctx, cancel := context.WithTimeout(context.Background(), imageCleanupTimeout)
		defer cancel()
		if err := s.images.Delete(ctx, ref); err != nil {
			metrics.ImageCleanupFailed.Inc()
			s.log.Warn("image cleanup failed", "ref", ref, "err", err)
		}
	}
	if s.pool == nil || !s.pool.Submit(job) {
		job()
	}
}

func (s *PostService) withURL(ctx context.Context, p *models.Post) {
	if p.ImageRef == "" {
		return
	}
	u, err := s.images.URL(ctx, p.ImageRef)
	if err != nil {
		s.log.Warn("image url unavailable", "post_id", p.ID, "ref", p.ImageRef, "err", err)
		return
	}
	p.ImageURL = u
}
