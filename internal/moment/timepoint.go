package moment

import (
	"encoding/json"
	"time"
)

// InvalidDate is what an invalid TimePoint formats as.
const InvalidDate = "Invalid date"

// Unit is the granularity used by the SameOr* comparisons.
type Unit int

const (
	Millisecond Unit = iota
	Minute
	Hour
	Day
)

// TimePoint is an immutable instant carrying its locale and zone. The zero
// value is invalid.
type TimePoint struct {
	t      time.Time
	locale *Locale
	valid  bool
}

// Valid reports whether the TimePoint holds an instant.
func (p TimePoint) Valid() bool { return p.valid }

// Time returns the instant, or the zero time when invalid.
func (p TimePoint) Time() time.Time {
	if !p.valid {
		return time.Time{}
	}
	return p.t
}

// Locale returns the locale name the TimePoint formats with.
func (p TimePoint) Locale() string { return p.loc().Name }

func (p TimePoint) loc() *Locale {
	if p.locale == nil {
		return locales[0]
	}
	return p.locale
}

// Format renders the TimePoint with moment-style tokens.
func (p TimePoint) Format(format string) string {
	if !p.valid {
		return InvalidDate
	}
	return formatTime(p.t, format, p.loc())
}

func (p TimePoint) with(t time.Time) TimePoint {
	if !p.valid {
		return p
	}
	return TimePoint{t: t, locale: p.locale, valid: true}
}

// StartOfMonth returns midnight on the first day of the month.
func (p TimePoint) StartOfMonth() TimePoint {
	y, m, _ := p.t.Date()
	return p.with(time.Date(y, m, 1, 0, 0, 0, 0, p.t.Location()))
}

// EndOfMonth returns the last millisecond of the month.
func (p TimePoint) EndOfMonth() TimePoint {
	y, m, _ := p.t.Date()
	next := time.Date(y, m+1, 1, 0, 0, 0, 0, p.t.Location())
	return p.with(next.Add(-time.Millisecond))
}

// StartOfDay returns midnight of the same day.
func (p TimePoint) StartOfDay() TimePoint {
	y, m, d := p.t.Date()
	return p.with(time.Date(y, m, d, 0, 0, 0, 0, p.t.Location()))
}

// EndOfDay returns the last millisecond of the same day.
func (p TimePoint) EndOfDay() TimePoint {
	y, m, d := p.t.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, p.t.Location())
	return p.with(next.Add(-time.Millisecond))
}

// StartOfHour truncates to the hour in the TimePoint's zone.
func (p TimePoint) StartOfHour() TimePoint {
	y, m, d := p.t.Date()
	return p.with(time.Date(y, m, d, p.t.Hour(), 0, 0, 0, p.t.Location()))
}

// AddMonths shifts by n calendar months, clamping the day to the length of
// the target month (January 31 plus one month is the last day of February).
func (p TimePoint) AddMonths(n int) TimePoint {
	if !p.valid {
		return p
	}
	y, m, d := p.t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	ty, tm := first.Year(), first.Month()
	if maxDay := daysIn(tm, ty); d > maxDay {
		d = maxDay
	}
	h, mi, s := p.t.Clock()
	return p.with(time.Date(ty, tm, d, h, mi, s, p.t.Nanosecond(), p.t.Location()))
}

// Add shifts by an absolute duration.
func (p TimePoint) Add(d time.Duration) TimePoint {
	return p.with(p.t.Add(d))
}

// Before reports whether p is strictly earlier than o. Invalid operands
// compare false.
func (p TimePoint) Before(o TimePoint) bool {
	return p.valid && o.valid && p.t.Before(o.t)
}

// After reports whether p is strictly later than o. Invalid operands compare
// false.
func (p TimePoint) After(o TimePoint) bool {
	return p.valid && o.valid && p.t.After(o.t)
}

// Equal reports whether both TimePoints are valid and the same instant.
func (p TimePoint) Equal(o TimePoint) bool {
	return p.valid && o.valid && p.t.Equal(o.t)
}

// SameOrAfter compares at the given granularity.
func (p TimePoint) SameOrAfter(o TimePoint, unit Unit) bool {
	return p.valid && o.valid && !p.truncate(unit).Before(o.truncate(unit))
}

// SameOrBefore compares at the given granularity.
func (p TimePoint) SameOrBefore(o TimePoint, unit Unit) bool {
	return p.valid && o.valid && !p.truncate(unit).After(o.truncate(unit))
}

// SameDay reports whether both fall on the same calendar day in p's zone.
func (p TimePoint) SameDay(o TimePoint) bool {
	if !p.valid || !o.valid {
		return false
	}
	y1, m1, d1 := p.t.Date()
	y2, m2, d2 := o.t.In(p.t.Location()).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (p TimePoint) truncate(unit Unit) time.Time {
	switch unit {
	case Minute:
		return p.t.Truncate(time.Minute)
	case Hour:
		return p.StartOfHour().t
	case Day:
		return p.StartOfDay().t
	}
	return p.t.Truncate(time.Millisecond)
}

// String formats as RFC 3339, or InvalidDate.
func (p TimePoint) String() string {
	if !p.valid {
		return InvalidDate
	}
	return p.t.Format(time.RFC3339)
}

// MarshalJSON encodes a valid TimePoint as an RFC 3339 string and an invalid
// one as null.
func (p TimePoint) MarshalJSON() ([]byte, error) {
	if !p.valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.t.Format(time.RFC3339Nano))
}
