package validate

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/baharkarakas/campus-lostfound/internal/common"
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string { // error interface
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

// Is lets errors.Is(err, common.ErrValidation) see field errors.
func (e Errs) Is(target error) bool { return target == common.ErrValidation }

// Add appends f when it is non-nil.
func (e *Errs) Add(f *ErrField) {
	if f != nil {
		*e = append(*e, *f)
	}
}

// OrNil returns nil for an empty list so callers can `return errs.OrNil()`.
func (e Errs) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Helpers
func Required(field, value string) *ErrField {
	if strings.TrimSpace(value) == "" {
		return &ErrField{Field: field, Msg: "required"}
	}
	return nil
}

func MinLen(field, value string, n int) *ErrField {
	if utf8.RuneCountInString(value) < n {
		return &ErrField{Field: field, Msg: "must be at least " + strconv.Itoa(n) + " characters"}
	}
	return nil
}

func OneOf(field, value string, allowed ...string) *ErrField {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ErrField{Field: field, Msg: "must be one of " + strings.Join(allowed, ", ")}
}

func MinInt(field string, v, min int64) *ErrField {
	if v < min {
		return &ErrField{Field: field, Msg: "must be >= " + strconv.FormatInt(min, 10)}
	}
	return nil
}

func MaxInt(field string, v, max int64) *ErrField {
	if v > max {
		return &ErrField{Field: field, Msg: "must be <= " + strconv.FormatInt(max, 10)}
	}
	return nil
}

// Int parses an optional query value; empty yields def.
func Int(field, raw string, def int) (int, *ErrField) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ErrField{Field: field, Msg: "must be an integer"}
	}
	return n, nil
}
