package calendar

import (
	"fmt"
	"time"
)

// Key identifies one commercial month.
type Key struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1-12
}

// Calendar maps calendar dates onto commercial months.
//
// A commercial month is offset from the calendar month by a cut day d:
// dates from day d of month m through day d-1 of month m+1 belong to the
// commercial month m+1. With d = 1 the commercial month equals the calendar
// month.
type Calendar struct {
	cutDay int
}

// New creates a calendar with the given cut day.
// Cut days above 28 degenerate under February clamping and are rejected
// instead of silently clamped.
func New(cutDay int) (*Calendar, error) {
	if cutDay < 1 || cutDay > 28 {
		return nil, fmt.Errorf("calendar: cut day must be in [1,28], got %d", cutDay)
	}
	return &Calendar{cutDay: cutDay}, nil
}

// CutDay returns the configured cut day.
func (c *Calendar) CutDay() int {
	return c.cutDay
}

// Bucket returns the commercial month containing t.
// Realized as: shift t back by (cutDay-1) days, then advance one month
// (no shift at all when cutDay is 1).
func (c *Calendar) Bucket(t time.Time) Key {
	if c.cutDay == 1 {
		return Key{Year: t.Year(), Month: int(t.Month())}
	}
	shifted := t.AddDate(0, 0, -(c.cutDay - 1))
	y, m := shifted.Year(), int(shifted.Month())
	m++
	if m > 12 {
		m = 1
		y++
	}
	return Key{Year: y, Month: m}
}

// Label formats a key as MMM/YYYY, e.g. "Mar/2024".
func (k Key) Label() string {
	return time.Date(k.Year, time.Month(k.Month), 1, 0, 0, 0, 0, time.UTC).Format("Jan/2006")
}

// SortKey returns a total order for a key: year first, then month.
func (k Key) SortKey() int {
	return k.Year*12 + (k.Month - 1)
}

// Before reports whether k precedes other.
func (k Key) Before(other Key) bool {
	return k.SortKey() < other.SortKey()
}

// Next returns the following commercial month.
func (k Key) Next() Key {
	if k.Month == 12 {
		return Key{Year: k.Year + 1, Month: 1}
	}
	return Key{Year: k.Year, Month: k.Month + 1}
}

// Prev returns the preceding commercial month.
func (k Key) Prev() Key {
	if k.Month == 1 {
		return Key{Year: k.Year - 1, Month: 12}
	}
	return Key{Year: k.Year, Month: k.Month - 1}
}

// ParseLabel is the inverse of Label.
func ParseLabel(s string) (Key, error) {
	t, err := time.Parse("Jan/2006", s)
	if err != nil {
		return Key{}, fmt.Errorf("calendar: bad month label %q: %w", s, err)
	}
	return Key{Year: t.Year(), Month: int(t.Month())}, nil
}

// SortKeyOf returns the sort key for a label.
func SortKeyOf(label string) (int, error) {
	k, err := ParseLabel(label)
	if err != nil {
		return 0, err
	}
	return k.SortKey(), nil
}

// Window returns the n most recent commercial months up to and including
// ref, in chronological order.
func Window(ref Key, n int) []Key {
	if n <= 0 {
		return nil
	}
	out := make([]Key, n)
	k := ref
	for i := n - 1; i >= 0; i-- {
		out[i] = k
		k = k.Prev()
	}
	return out
}

// WindowLabels is Window over labels.
func WindowLabels(refLabel string, n int) ([]string, error) {
	ref, err := ParseLabel(refLabel)
	if err != nil {
		return nil, err
	}
	keys := Window(ref, n)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.Label()
	}
	return out, nil
}
