// Package moment builds locale and time-zone aware instants.
//
// A Resolver is the only way TimePoints are constructed, so every parse,
// format and comparison made through one sees the same locale and zone.
// Resolution never fails loudly: input that cannot be read yields an invalid
// TimePoint which answers Valid() == false and formats as "Invalid date".
package moment

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// Config selects the locale, zone and time source of a Resolver.
type Config struct {
	Locale   string
	TimeZone string
	Clock    clockwork.Clock
}

// Resolver constructs TimePoints pinned to one locale and zone.
type Resolver struct {
	locale *Locale
	zone   *time.Location
	zoneID string
	clock  clockwork.Clock
}

// NewResolver creates a Resolver. An unknown TimeZone falls back to the local
// zone and is reported as an error alongside the still-usable Resolver.
func NewResolver(cfg Config) (*Resolver, error) {
	r := &Resolver{
		locale: LookupLocale(cfg.Locale),
		zone:   time.Local,
		clock:  cfg.Clock,
	}
	if r.clock == nil {
		r.clock = clockwork.NewRealClock()
	}
	tz := strings.TrimSpace(cfg.TimeZone)
	if tz == "" {
		return r, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return r, fmt.Errorf("load time zone %q: %w", tz, err)
	}
	r.zone = loc
	r.zoneID = tz
	return r, nil
}

// MustResolver is NewResolver for configurations known to be valid.
func MustResolver(cfg Config) *Resolver {
	r, err := NewResolver(cfg)
	if err != nil {
		panic(err)
	}
	return r
}

// Locale returns the resolver's locale name.
func (r *Resolver) Locale() string { return r.locale.Name }

// TimeZone returns the configured zone name, empty when the local zone is used.
func (r *Resolver) TimeZone() string { return r.zoneID }

// Location returns the zone instants are anchored in.
func (r *Resolver) Location() *time.Location { return r.zone }

// Clock returns the resolver's time source.
func (r *Resolver) Clock() clockwork.Clock { return r.clock }

// Now returns the current instant.
func (r *Resolver) Now() TimePoint {
	return r.FromTime(r.clock.Now())
}

// Invalid returns the distinguished invalid TimePoint for this locale.
func (r *Resolver) Invalid() TimePoint {
	return TimePoint{locale: r.locale}
}

// FromTime pins t to the resolver's locale and zone.
func (r *Resolver) FromTime(t time.Time) TimePoint {
	if t.IsZero() {
		return r.Invalid()
	}
	return TimePoint{t: t.In(r.zone), locale: r.locale, valid: true}
}

// Resolve converts value into a TimePoint. Accepted values are TimePoint,
// time.Time, *time.Time and string. Strings are parsed as ISO-8601 when no
// formats are given, otherwise against each format in order, first match
// wins. Anything else is invalid.
func (r *Resolver) Resolve(value any, formats ...string) TimePoint {
	switch v := value.(type) {
	case TimePoint:
		if !v.valid {
			return r.Invalid()
		}
		return r.FromTime(v.t)
	case *TimePoint:
		if v == nil {
			return r.Invalid()
		}
		return r.Resolve(*v)
	case time.Time:
		return r.FromTime(v)
	case *time.Time:
		if v == nil {
			return r.Invalid()
		}
		return r.FromTime(*v)
	case string:
		return r.Parse(v, formats...)
	}
	return r.Invalid()
}

// Parse reads s against formats, or as ISO-8601 when formats is empty.
func (r *Resolver) Parse(s string, formats ...string) TimePoint {
	if strings.TrimSpace(s) == "" {
		return r.Invalid()
	}
	if len(formats) == 0 {
		return r.ParseISO(s)
	}
	now := r.clock.Now().In(r.zone)
	for _, f := range formats {
		if t, ok := parseFormat(s, f, r.locale, now, r.zone); ok {
			return TimePoint{t: t, locale: r.locale, valid: true}
		}
	}
	return r.Invalid()
}

// ParseISO reads s as an ISO-8601 date or datetime.
func (r *Resolver) ParseISO(s string) TimePoint {
	t, ok := parseISO(s, r.zone)
	if !ok {
		return r.Invalid()
	}
	return TimePoint{t: t, locale: r.locale, valid: true}
}
