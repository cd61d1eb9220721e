package db

import (
	"fmt"
	"time"
)

var timeLayouts = []string{
	TimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
}

// ScanTime adapts a timestamp column for Scan whatever the driver hands back.
func ScanTime(dst *time.Time) *TimeScanner { return &TimeScanner{dst: dst} }

type TimeScanner struct{ dst *time.Time }

func (s *TimeScanner) Scan(v any) error {
	switch x := v.(type) {
	case time.Time:
		*s.dst = x.UTC()
		return nil
	case string:
		return s.parse(x)
	case []byte:
		return s.parse(string(x))
	case nil:
		*s.dst = time.Time{}
		return nil
	default:
		return fmt.Errorf("db: cannot scan %T into time", v)
	}
}

func (s *TimeScanner) parse(raw string) error {
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, raw); err == nil {
			*s.dst = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("db: unrecognised timestamp %q", raw)
}
