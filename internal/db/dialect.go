package db

import (
	"strconv"
	"strings"
	"time"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Rebind rewrites "?" placeholders into the dialect's form. Queries in this
// repo never contain a literal question mark.
func (d Dialect) Rebind(q string) string {
	if d != Postgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

// Like is the substring operator. SQLite's LIKE already ignores ASCII case.
func (d Dialect) Like() string {
	if d == Postgres {
		return "ILIKE"
	}
	return "LIKE"
}

// TimeLayout is how SQLite stores timestamps: fixed width, UTC, so text order
// is chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// TimeArg converts t into the value bound for a timestamp column.
func (d Dialect) TimeArg(t time.Time) any {
	if d == Postgres {
		return t.UTC()
	}
	return t.UTC().Format(TimeLayout)
}
