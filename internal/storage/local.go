package storage

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Local writes images into a directory served under a URL prefix.
type Local struct {
	dir    string
	prefix string
	now    func() time.Time
}

func NewLocal(dir, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create uploads dir %s", dir)
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &Local{dir: dir, prefix: urlPrefix, now: time.Now}, nil
}

func (l *Local) Dir() string { return l.dir }

func (l *Local) Save(ctx context.Context, original string, r io.Reader) (string, error) {
	name, err := UniqueName(original, l.now())
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(l.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "create image file")
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", errors.Wrap(err, "write image file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", errors.Wrap(err, "close image file")
	}
	return name, nil
}

func (l *Local) Delete(_ context.Context, ref string) error {
	if !validRef(ref) {
		return errors.Errorf("invalid image reference %q", ref)
	}
	err := os.Remove(filepath.Join(l.dir, ref))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove image %s", ref)
	}
	return nil
}

func (l *Local) URL(_ context.Context, ref string) (string, error) {
	if !validRef(ref) {
		return "", errors.Errorf("invalid image reference %q", ref)
	}
	return l.prefix + url.PathEscape(ref), nil
}
