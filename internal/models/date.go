package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

const day = 24 * time.Hour

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// Date is a calendar date read from a project record. The zero value means
// the field was absent or could not be parsed.
type Date struct {
	time.Time
}

// NewDate wraps t as a Date.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// ParseDate parses the date formats seen in community records. Unknown
// formats (e.g. "TBD", "~2028") yield the zero Date.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}
		}
	}
	return Date{}
}

// Valid reports whether the date was present in the record.
func (d Date) Valid() bool {
	return !d.IsZero()
}

func (d *Date) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// 非字符串日期按缺失处理
		*d = Date{}
		return nil
	}
	*d = ParseDate(s)
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return []byte("null"), nil
	}
	t := d.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return json.Marshal(t.Format("2006-01-02"))
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// DaysBetween returns the whole number of days between two instants, rounded
// to the nearest day.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(math.Abs(float64(a.Sub(b)) / float64(day))))
}

// DaysSince returns the days elapsed from start to now, or 0 when start lies
// in the future.
func DaysSince(start, now time.Time) int {
	if start.After(now) {
		return 0
	}
	return DaysBetween(start, now)
}
