package storage

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/baharkarakas/campus-lostfound/internal/api/validate"
)

var allowedExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".webp": "image/webp",
}

const maxBaseLen = 40

// CheckName rejects files whose extension is not an accepted image type.
func CheckName(original string) error {
	if _, ok := allowedExt[strings.ToLower(filepath.Ext(original))]; !ok {
		return validate.Errs{{Field: "image", Msg: "unsupported file type"}}
	}
	return nil
}

func contentType(name string) string { return allowedExt[strings.ToLower(filepath.Ext(name))] }

// UniqueName derives a collision-free object name:
// <utc timestamp>_<random>_<slugged base><ext>.
func UniqueName(original string, now time.Time) (string, error) {
	if err := CheckName(original); err != nil {
		return "", err
	}
	// browsers may send a full client path
	original = filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(original))

	base := slug.Make(strings.TrimSuffix(original, filepath.Ext(original)))
	if len(base) > maxBaseLen {
		base = strings.Trim(base[:maxBaseLen], "-")
	}
	if base == "" {
		base = "image"
	}
	return now.UTC().Format("20060102T150405") + "_" + uuid.NewString()[:8] + "_" + base + ext, nil
}

// validRef reports whether ref is a plain object name with no path parts.
func validRef(ref string) bool {
	return ref != "" && ref != "." && ref != ".." &&
		!strings.ContainsAny(ref, `/\`) && !strings.Contains(ref, "\x00")
}
