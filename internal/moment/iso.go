package moment

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISODateTime loosely matches ISO-8601 calendar, week and ordinal dates with
// an optional time and offset. Unlike a strict parser it accepts mixed
// basic/extended separators. Every string it matches is parsed by ParseISO.
var ISODateTime = regexp.MustCompile(`^(?P<year>[+-]?\d{4})` +
	`(?:-?(?P<month>0[1-9]|1[0-2])(?:-?(?P<day>0[1-9]|[12]\d|3[01]))?` +
	`|-?W(?P<week>0[1-9]|[1-4]\d|5[0-3])-?(?P<weekday>[1-7])` +
	`|-?(?P<ordinal>00[1-9]|0[1-9]\d|[12]\d{2}|3(?:[0-5]\d|6[1-6])))?` +
	`(?:[T\s]` +
	`(?:(?P<hour>[01]\d|2[0-3])(?::?(?P<minute>[0-5]\d)(?::?(?P<second>[0-5]\d)(?P<frac>[.,]\d+)?)?)?` +
	`|(?P<midnight>24(?::?00){1,2}))?` +
	`(?P<zone>[zZ]|[+-](?:[01]\d|2[0-3])(?::?[0-5]\d)?)?)?$`)

// IsISO reports whether s looks like an ISO-8601 date or datetime.
func IsISO(s string) bool {
	return ISODateTime.MatchString(strings.TrimSpace(s))
}

type isoParts map[string]string

func matchISO(s string) (isoParts, bool) {
	m := ISODateTime.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	parts := isoParts{}
	for i, name := range ISODateTime.SubexpNames() {
		if name != "" && m[i] != "" {
			parts[name] = m[i]
		}
	}
	return parts, true
}

func (p isoParts) num(name string) int {
	v, _ := strconv.Atoi(p[name])
	return v
}

// parseISO parses anything ISODateTime matches. Values without an offset are
// read as wall time in zone; values with one are converted into zone. 24:00
// is midnight at the end of the day.
func parseISO(s string, zone *time.Location) (time.Time, bool) {
	p, ok := matchISO(strings.TrimSpace(s))
	if !ok {
		return time.Time{}, false
	}

	year := p.num("year")
	date, ok := p.date(year)
	if !ok {
		return time.Time{}, false
	}

	loc := zone
	if z, ok := p["zone"]; ok {
		loc = parseISOZone(z)
	}

	t := time.Date(date.Year(), date.Month(), date.Day(),
		p.num("hour"), p.num("minute"), p.num("second"), fracNanos(p["frac"]), loc)
	if _, ok := p["midnight"]; ok {
		t = t.AddDate(0, 0, 1)
	}
	return t.In(zone), true
}

// date resolves the calendar, week or ordinal form to a UTC calendar day.
func (p isoParts) date(year int) (time.Time, bool) {
	switch {
	case p["week"] != "":
		week, weekday := p.num("week"), p.num("weekday")
		jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
		monday := jan4.AddDate(0, 0, -((int(jan4.Weekday()) + 6) % 7))
		d := monday.AddDate(0, 0, (week-1)*7+weekday-1)
		if y, w := d.ISOWeek(); y != year || w != week {
			return time.Time{}, false
		}
		return d, true
	case p["ordinal"] != "":
		n := p.num("ordinal")
		d := time.Date(year, time.January, n, 0, 0, 0, 0, time.UTC)
		if d.Year() != year {
			return time.Time{}, false
		}
		return d, true
	}
	month, day := 1, 1
	if p["month"] != "" {
		month = p.num("month")
	}
	if p["day"] != "" {
		day = p.num("day")
	}
	if day > daysIn(time.Month(month), year) {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func parseISOZone(z string) *time.Location {
	if z == "z" || z == "Z" {
		return time.UTC
	}
	digits := strings.ReplaceAll(z[1:], ":", "")
	h, _ := strconv.Atoi(digits[:2])
	m := 0
	if len(digits) == 4 {
		m, _ = strconv.Atoi(digits[2:])
	}
	secs := h*3600 + m*60
	if z[0] == '-' {
		secs = -secs
	}
	return time.FixedZone("", secs)
}

// fracNanos reads a ",5" or ".123456789" fraction, ignoring digits past
// nanosecond precision.
func fracNanos(frac string) int {
	if frac == "" {
		return 0
	}
	digits := frac[1:]
	if len(digits) > 9 {
		digits = digits[:9]
	}
	digits += strings.Repeat("0", 9-len(digits))
	n, _ := strconv.Atoi(digits)
	return n
}
