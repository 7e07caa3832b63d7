// Package timeopts normalizes time-of-day values and derives the option list
// shown by a time dropdown.
//
// A Normalizer is an immutable value built from a Config. Changing any
// parameter means building a new Normalizer (see Reconfigure), so formatting,
// validation, range checks and the option list always agree with each other.
package timeopts

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/drivers-report-service/internal/moment"
)

const (
	DefaultTimeFormat = "LT"
	DefaultInterval   = 30
)

// Config describes a time dropdown. Minimum and Maximum accept anything
// GetMoment understands; nil means start and end of the current day.
type Config struct {
	TimeFormat string
	Interval   int
	Minimum    any
	Maximum    any
	Locale     string
	TimeZone   string
	Clock      clockwork.Clock
}

// Observer is notified whenever a Normalizer derives its option list.
type Observer interface {
	OptionsBuilt(n int)
}

// Option customizes a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used for rebuild diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) { n.logger = logger }
}

// WithObserver reports option list sizes to obs.
func WithObserver(obs Observer) Option {
	return func(n *Normalizer) { n.observer = obs }
}

// Normalizer formats, validates and range-checks time values.
type Normalizer struct {
	cfg      Config
	resolver *moment.Resolver
	min, max moment.TimePoint
	options  []string
	logger   *slog.Logger
	observer Observer
}

// New builds a Normalizer. Unset fields take their defaults. A span that would
// yield more than MaxOptions options is rejected with ErrTooManyOptions.
func New(cfg Config, opts ...Option) (*Normalizer, error) {
	n, err := resolve(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := n.buildOptions(); err != nil {
		return nil, err
	}
	return n, nil
}

// resolve applies defaults and reads the bounds without deriving options.
func resolve(cfg Config, opts ...Option) (*Normalizer, error) {
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = DefaultTimeFormat
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Interval < 0 {
		return nil, errors.New("interval must be positive")
	}
	if cfg.Locale == "" {
		cfg.Locale = moment.DefaultLocale
	}

	r, err := moment.NewResolver(moment.Config{Locale: cfg.Locale, TimeZone: cfg.TimeZone, Clock: cfg.Clock})
	if err != nil {
		return nil, err
	}

	n := &Normalizer{cfg: cfg, resolver: r, logger: slog.Default()}
	for _, opt := range opts {
		opt(n)
	}

	n.min = r.Now().StartOfDay()
	if cfg.Minimum != nil {
		if n.min = n.GetMoment(cfg.Minimum); !n.min.Valid() {
			return nil, fmt.Errorf("invalid minimum time %v", cfg.Minimum)
		}
	}
	n.max = r.Now().EndOfDay()
	if cfg.Maximum != nil {
		if n.max = n.GetMoment(cfg.Maximum); !n.max.Valid() {
			return nil, fmt.Errorf("invalid maximum time %v", cfg.Maximum)
		}
	}
	return n, nil
}

func (n *Normalizer) buildOptions() error {
	if count := OptionCount(n.cfg.Interval, n.min, n.max); count > MaxOptions {
		return fmt.Errorf("%w: %d options at %d minute interval", ErrTooManyOptions, count, n.cfg.Interval)
	}
	n.options = BuildOptionList(n.cfg.TimeFormat, n.cfg.Interval, n.min, n.max)
	if n.observer != nil {
		n.observer.OptionsBuilt(len(n.options))
	}
	return nil
}

// Config returns the effective configuration, defaults applied.
func (n *Normalizer) Config() Config { return n.cfg }

// Resolver returns the resolver all TimePoints are built with.
func (n *Normalizer) Resolver() *moment.Resolver { return n.resolver }

// GetMoment turns value into a TimePoint. TimePoints, native times and ISO
// strings are read directly; any other non-empty string is parsed with the
// configured time format.
func (n *Normalizer) GetMoment(value any) moment.TimePoint {
	switch v := value.(type) {
	case moment.TimePoint, *moment.TimePoint, time.Time, *time.Time:
		return n.resolver.Resolve(v)
	case string:
		if moment.IsISO(v) {
			return n.resolver.ParseISO(v)
		}
		if v != "" {
			return n.resolver.Parse(v, n.cfg.TimeFormat)
		}
	}
	return n.resolver.Invalid()
}

// Normalize returns the canonical string for value, or false when value
// cannot be read.
func (n *Normalizer) Normalize(value any) (string, bool) {
	tp := n.GetMoment(value)
	if !tp.Valid() {
		return "", false
	}
	return tp.Format(n.cfg.TimeFormat), true
}

// Format renders value with the configured time format. Callers are expected
// to pass valid input; invalid input renders as moment.InvalidDate.
func (n *Normalizer) Format(value any) string {
	return n.GetMoment(value).Format(n.cfg.TimeFormat)
}

// Validate reports whether value is a valid TimePoint, a native time, an
// ISO-8601 string or a string that parses with the configured format.
func (n *Normalizer) Validate(value any) bool {
	switch v := value.(type) {
	case moment.TimePoint:
		return v.Valid()
	case *moment.TimePoint:
		return v != nil && v.Valid()
	case time.Time:
		return !v.IsZero()
	case *time.Time:
		return v != nil && !v.IsZero()
	case string:
		if v == "" {
			return false
		}
		return moment.IsISO(v) || n.resolver.Parse(v, n.cfg.TimeFormat).Valid()
	}
	return false
}

// InRange reports whether value's time of day lies within the configured
// bounds, inclusive at minute granularity. The date part is ignored.
func (n *Normalizer) InRange(value any) bool {
	return InRange(n.resolver, n.cfg.TimeFormat, n.min, n.max, n.GetMoment(value))
}

// Options returns the option list derived from the configured bounds.
func (n *Normalizer) Options() []string {
	return append([]string(nil), n.options...)
}

// MinimumTime returns the lower bound in the configured format.
func (n *Normalizer) MinimumTime() string { return n.min.Format(n.cfg.TimeFormat) }

// MaximumTime returns the upper bound in the configured format.
func (n *Normalizer) MaximumTime() string { return n.max.Format(n.cfg.TimeFormat) }

// ToDate returns value as a native time, zero when it cannot be read.
func (n *Normalizer) ToDate(value any) time.Time {
	return n.GetMoment(value).Time()
}

// Reconfigure returns a Normalizer for cfg. When nothing that affects the
// derived values changed, the receiver is returned with changed == false and
// no option list is built.
func (n *Normalizer) Reconfigure(cfg Config) (next *Normalizer, changed bool, err error) {
	if cfg.Clock == nil {
		cfg.Clock = n.resolver.Clock()
	}
	candidate, err := resolve(cfg, WithLogger(n.logger), WithObserver(n.observer))
	if err != nil {
		return n, false, err
	}
	if n.sameParameters(candidate) {
		return n, false, nil
	}
	if err := candidate.buildOptions(); err != nil {
		return n, false, err
	}
	n.logger.Debug("time options rebuilt",
		"format", candidate.cfg.TimeFormat,
		"interval", candidate.cfg.Interval,
		"min", candidate.MinimumTime(),
		"max", candidate.MaximumTime(),
		"options", len(candidate.options),
	)
	return candidate, true, nil
}

func (n *Normalizer) sameParameters(o *Normalizer) bool {
	return n.cfg.TimeFormat == o.cfg.TimeFormat &&
		n.cfg.Interval == o.cfg.Interval &&
		n.resolver.Locale() == o.resolver.Locale() &&
		n.resolver.TimeZone() == o.resolver.TimeZone() &&
		sameMinute(n.min, o.min) &&
		sameMinute(n.max, o.max)
}

func sameMinute(a, b moment.TimePoint) bool {
	return a.SameOrAfter(b, moment.Minute) && a.SameOrBefore(b, moment.Minute)
}
