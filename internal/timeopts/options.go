package timeopts

import (
	"errors"
	"time"

	"github.com/couchcryptid/drivers-report-service/internal/moment"
)

// MaxOptions caps the option list: one entry per minute of a day.
const MaxOptions = 1440

// ErrTooManyOptions reports a span and interval that would exceed MaxOptions.
var ErrTooManyOptions = errors.New("too many time options")

// OptionCount estimates how many options BuildOptionList yields for the
// bounds: one per interval step of the span, plus the start. Invalid input
// counts as zero.
func OptionCount(interval int, lower, upper moment.TimePoint) int {
	if interval < 1 || !lower.Valid() || !upper.Valid() || upper.Before(lower) {
		return 0
	}
	span := upper.Time().Sub(lower.Time())
	return int(span/(time.Duration(interval)*time.Minute)) + 1
}

// BuildOptionList formats the times between lower and upper at interval-minute
// steps. The window is first widened to whole hours, then the start is
// advanced until it is at or after lower and the end is pulled back until it
// is at or before upper. Invalid bounds or an interval below one minute give an
// empty list. The list never holds more than MaxOptions entries.
func BuildOptionList(format string, interval int, lower, upper moment.TimePoint) []string {
	if interval < 1 || !lower.Valid() || !upper.Valid() {
		return []string{}
	}
	step := time.Duration(interval) * time.Minute

	start := lower.StartOfHour()
	for start.Before(lower) {
		start = start.Add(step)
	}
	end := upper.Add(time.Hour).StartOfHour()
	for end.After(upper) {
		end = end.Add(-step)
	}

	list := []string{}
	for t := start; t.SameOrBefore(end, moment.Millisecond) && len(list) < MaxOptions; t = t.Add(step) {
		if !t.Valid() {
			break
		}
		list = append(list, t.Format(format))
	}
	return list
}

// InRange reports whether value's time of day lies within [lower, upper],
// inclusive at minute granularity. Every operand is rendered through format
// and parsed back, which drops the date part. An invalid bound leaves that
// side unbounded; an invalid value is never in range.
func InRange(r *moment.Resolver, format string, lower, upper, value moment.TimePoint) bool {
	if !value.Valid() {
		return false
	}
	t := timeOfDay(r, format, value)
	if lower.Valid() && !t.SameOrAfter(timeOfDay(r, format, lower), moment.Minute) {
		return false
	}
	if upper.Valid() && !t.SameOrBefore(timeOfDay(r, format, upper), moment.Minute) {
		return false
	}
	return true
}

func timeOfDay(r *moment.Resolver, format string, tp moment.TimePoint) moment.TimePoint {
	return r.Parse(tp.Format(format), format)
}
