// Package storage holds uploaded item photos. Posts only keep the opaque
// reference returned by Save.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/baharkarakas/campus-lostfound/internal/config"
)

type Store interface {
	// Save stores the content under a fresh name derived from original and
	// returns its reference.
	Save(ctx context.Context, original string, r io.Reader) (string, error)
	// Delete removes ref. Missing objects are not an error.
	Delete(ctx context.Context, ref string) error
	// URL is where a client can fetch ref.
	URL(ctx context.Context, ref string) (string, error)
}

// New builds the backend selected by cfg.ImageBackend.
func New(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.ImageBackend {
	case "local":
		return NewLocal(cfg.UploadsDir, cfg.UploadsURLPrefix)
	case "s3":
		return NewS3(ctx, S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			URLTTL:       cfg.S3URLTTL,
		})
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.ImageBackend)
	}
}
