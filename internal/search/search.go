// Package search turns listing filters into a deterministic SQL predicate and
// window. It knows nothing about storage beyond column names.
package search

import (
	"net/url"
	"strings"

	"github.com/baharkarakas/campus-lostfound/internal/api/validate"
	"github.com/baharkarakas/campus-lostfound/internal/models"
)

// Query is a validated listing request. Empty strings mean "no constraint".
type Query struct {
	Keyword  string
	Kind     string
	Category string
	Status   string
	Limit    int
	Offset   int
}

// Limits carries the configured window bounds.
type Limits struct {
	Default int
	Max     int
}

// Parse reads keyword/type/category/status/limit/offset from URL values.
// Malformed or out-of-range numbers are rejected, never clamped.
func Parse(v url.Values, lim Limits) (Query, error) {
	q := Query{
		Keyword:  strings.TrimSpace(v.Get("keyword")),
		Kind:     strings.ToLower(strings.TrimSpace(v.Get("type"))),
		Category: strings.TrimSpace(v.Get("category")),
		Status:   strings.ToLower(strings.TrimSpace(v.Get("status"))),
	}

	var errs validate.Errs
	var f *validate.ErrField
	q.Limit, f = validate.Int("limit", v.Get("limit"), lim.Default)
	errs.Add(f)
	q.Offset, f = validate.Int("offset", v.Get("offset"), 0)
	errs.Add(f)
	if err := errs.OrNil(); err != nil {
		return Query{}, err
	}
	return q, q.Validate(lim)
}

func (q Query) Validate(lim Limits) error {
	var errs validate.Errs
	errs.Add(validate.MinInt("limit", int64(q.Limit), 0))
	errs.Add(validate.MaxInt("limit", int64(q.Limit), int64(lim.Max)))
	errs.Add(validate.MinInt("offset", int64(q.Offset), 0))
	if q.Kind != "" {
		errs.Add(validate.OneOf("type", q.Kind, string(models.KindLost), string(models.KindFound)))
	}
	if q.Status != "" {
		errs.Add(validate.OneOf("status", q.Status, string(models.StatusActive), string(models.StatusFound)))
	}
	return errs.OrNil()
}

// Columns names the columns the predicate refers to, already qualified.
type Columns struct {
	ItemName, Description, Location string
	Kind, Category, Status          string
}

// Where builds the predicate with "?" placeholders. like is the substring
// operator of the target database ("LIKE" or "ILIKE"). An empty result means
// every row matches.
func (q Query) Where(c Columns, like string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.Keyword != "" {
		pat := "%" + EscapeLike(q.Keyword) + "%"
		conds = append(conds, "("+
			c.ItemName+" "+like+" ? ESCAPE '\\' OR "+
			c.Description+" "+like+" ? ESCAPE '\\' OR "+
			c.Location+" "+like+" ? ESCAPE '\\')")
		args = append(args, pat, pat, pat)
	}
	if q.Kind != "" {
		conds = append(conds, c.Kind+" = ?")
		args = append(args, q.Kind)
	}
	if q.Category != "" {
		conds = append(conds, c.Category+" = ?")
		args = append(args, q.Category)
	}
	if q.Status != "" {
		conds = append(conds, c.Status+" = ?")
		args = append(args, q.Status)
	}
	return strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike makes s match literally inside a LIKE pattern using '\' as the
// escape character.
func EscapeLike(s string) string { return likeEscaper.Replace(s) }
