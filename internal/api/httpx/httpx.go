package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/baharkarakas/campus-lostfound/internal/api/validate"
	"github.com/baharkarakas/campus-lostfound/internal/common"
)

// Envelope is the shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Details any    `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, status int, msg string, data any) {
	WriteJSON(w, status, Envelope{Success: true, Message: msg, Data: data})
}

func WriteError(w http.ResponseWriter, status int, msg string, details any) {
	WriteJSON(w, status, Envelope{Success: false, Message: msg, Details: details})
}

// Fail maps err onto a status code and writes the failure envelope. Server
// side failures get a generic message; the cause is logged.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		fields validate.Errs
		tooBig *http.MaxBytesError
	)
	switch {
	case errors.As(err, &fields):
		WriteError(w, http.StatusBadRequest, "validation failed: "+fields.Error(), []validate.ErrField(fields))
	case errors.Is(err, common.ErrValidation):
		WriteError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.As(err, &tooBig):
		WriteError(w, http.StatusRequestEntityTooLarge, "request body too large", nil)
	case errors.Is(err, common.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, common.ErrInvalidCredentials.Error(), nil)
	case errors.Is(err, common.ErrUnauthenticated):
		WriteError(w, http.StatusUnauthorized, "authentication required", nil)
	case errors.Is(err, common.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden: not the owner of this post", nil)
	case errors.Is(err, common.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not found", nil)
	case errors.Is(err, common.ErrConflict):
		WriteError(w, http.StatusConflict, err.Error(), nil)
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "request_id", RequestID(r.Context()), "err", err)
		WriteError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

// BadRequest wraps a malformed body or parameter as a validation failure.
func BadRequest(msg string) error {
	return &badRequest{msg: msg}
}

type badRequest struct{ msg string }

func (e *badRequest) Error() string        { return e.msg }
func (e *badRequest) Is(target error) bool { return target == common.ErrValidation }

type reqIDKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, reqIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(reqIDKey{}).(string)
	return s
}
