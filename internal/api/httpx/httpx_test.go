package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/campus-lostfound/internal/api/validate"
	"github.com/baharkarakas/campus-lostfound/internal/common"
)

func TestFail_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{validate.Errs{{Field: "item_name", Msg: "required"}}, 400, "validation failed: item_name: required"},
		{BadRequest("invalid JSON body"), 400, "invalid JSON body"},
		{fmt.Errorf("wrap: %w", common.ErrInvalidCredentials), 401, "invalid username or password"},
		{fmt.Errorf("%w: expired", common.ErrUnauthenticated), 401, "authentication required"},
		{fmt.Errorf("post 3: %w", common.ErrForbidden), 403, "forbidden: not the owner of this post"},
		{fmt.Errorf("post 3: %w", common.ErrNotFound), 404, "not found"},
		{fmt.Errorf("username %q: %w", "ann", common.ErrConflict), 409, `username "ann": already exists`},
		{&http.MaxBytesError{Limit: 10}, 413, "request body too large"},
		{errors.Join(common.ErrStorage, errors.New("disk I/O: /var/db")), 500, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Fail(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tc.err)

			assert.Equal(t, tc.status, rec.Code)
			var env Envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.False(t, env.Success)
			assert.Equal(t, tc.msg, env.Message)
		})
	}
}

func TestOK_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, http.StatusCreated, "created", map[string]int{"id": 4})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"message":"created","data":{"id":4}}`, rec.Body.String())
}
