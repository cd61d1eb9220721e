package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/baharkarakas/campus-lostfound/internal/api/httpx"
)

const maxJSONBody = 1 << 20

// postID accepts both 12 and "12".
type postID int64

func (id *postID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return errors.New("id must be an integer")
	}
	*id = postID(n)
	return nil
}

func (id postID) valid() error {
	if id <= 0 {
		return httpx.BadRequest("id: must be a positive integer")
	}
	return nil
}

func parseID(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return 0, httpx.BadRequest("id: must be a positive integer")
	}
	return n, nil
}

// decodeJSON reads one JSON object into dst. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(r.Body).Decode(dst)
	var tooBig *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &tooBig):
		return err
	case errors.Is(err, io.EOF):
		return httpx.BadRequest("request body is empty")
	default:
		return httpx.BadRequest("invalid JSON body: " + err.Error())
	}
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}
