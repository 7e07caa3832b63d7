// Package datefield holds the state machine behind a date-picker input.
//
// A Field is either closed or open. Typed text is buffered and only
// committed on blur, on an open/close transition or when a calendar day is
// selected. A commit never fails: input that does not parse, or that falls
// outside the configured bounds, silently reverts to the last committed
// value, and when there is nothing to revert to the field is cleared.
//
// Fields are not safe for concurrent use.
package datefield

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/drivers-report-service/internal/moment"
)

// DefaultInputDateFormats is used when no input format is configured. The
// first entry is canonical.
var DefaultInputDateFormats = []string{"L", "YYYY-MM-DD", "MM/DD/YYYY"}

// SelectFunc is the external listener. valid is false when the field is empty.
type SelectFunc func(value string, valid bool)

// Config configures a Field.
type Config struct {
	Value           any
	MinimumDate     any
	MaximumDate     any
	InputDateFormat []string
	Locale          string
	TimeZone        string
	Clock           clockwork.Clock
	OnDateSelect    SelectFunc

	// Debounce delays listener notification until no further commit has
	// happened for the given duration. Zero notifies synchronously.
	Debounce time.Duration

	Placeholder  string
	Error        string
	Presentation Presentation
	Observer     Observer
	Logger       *slog.Logger
}

// Field is a single date-picker input.
type Field struct {
	resolver *moment.Resolver
	formats  []string
	min, max moment.TimePoint
	notify   SelectFunc
	debounce *debouncer
	observer Observer
	logger   *slog.Logger

	state     State
	buffer    *string
	lastError string
}

// New creates a Field from cfg.
func New(cfg Config) (*Field, error) {
	formats := cfg.InputDateFormat
	if len(formats) == 0 {
		formats = DefaultInputDateFormats
	}
	formats = append([]string(nil), formats...)
	if cfg.Locale == "" {
		cfg.Locale = moment.DefaultLocale
	}
	r, err := moment.NewResolver(moment.Config{Locale: cfg.Locale, TimeZone: cfg.TimeZone, Clock: cfg.Clock})
	if err != nil {
		return nil, err
	}

	f := &Field{
		resolver: r,
		formats:  formats,
		notify:   cfg.OnDateSelect,
		observer: cfg.Observer,
		logger:   cfg.Logger,
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.notify == nil {
		f.notify = func(string, bool) {}
	}
	if cfg.Debounce > 0 {
		f.debounce = newDebouncer(r.Clock(), cfg.Debounce, f.emit)
	}

	if cfg.MinimumDate != nil {
		if f.min = f.resolve(cfg.MinimumDate); !f.min.Valid() {
			return nil, errors.New("invalid minimum date")
		}
	}
	if cfg.MaximumDate != nil {
		if f.max = f.resolve(cfg.MaximumDate); !f.max.Valid() {
			return nil, errors.New("invalid maximum date")
		}
	}

	initial := f.resolveExternal(cfg.Value)
	placeholder := cfg.Placeholder
	if placeholder == "" {
		placeholder = derivePlaceholder(initial.Format(f.canonical()))
	}
	value := ""
	if !isEmptyValue(cfg.Value) {
		value = initial.Format(f.canonical())
	}

	f.lastError = cfg.Error
	f.setState(State{
		Value:        value,
		Window:       monthOf(initial),
		Placeholder:  placeholder,
		Error:        cfg.Error,
		Presentation: cfg.Presentation.withDefaults(),
	})
	return f, nil
}

// State returns the current snapshot.
func (f *Field) State() State { return f.state }

// Formats returns the accepted input formats, canonical first.
func (f *Field) Formats() []string { return append([]string(nil), f.formats...) }

// Resolver returns the resolver dates are built with.
func (f *Field) Resolver() *moment.Resolver { return f.resolver }

func (f *Field) canonical() string { return f.formats[0] }

// Input buffers raw keystrokes without committing them.
func (f *Field) Input(raw string) State {
	f.buffer = &raw
	next := f.state
	next.Input = f.buffer
	f.setState(next)
	return f.state
}

// Blur commits raw. The listener is notified only while the field is closed;
// an open calendar announces the value when it closes.
func (f *Field) Blur(raw string) State {
	f.buffer = &raw
	return f.Commit(raw, !f.state.Open)
}

// SetOpen moves between Closed and Open. The buffered input is committed on
// every transition, silently when opening and with notification when
// closing.
func (f *Field) SetOpen(open bool) State {
	if f.state.Open == open {
		return f.state
	}
	f.Commit(f.pending(), !open)
	next := f.state
	next.Open = open
	f.setState(next)
	return f.state
}

// Select commits a calendar day, always notifies and closes the field.
func (f *Field) Select(date any) State {
	value := f.resolve(date).Format(f.canonical())
	f.buffer = &value
	f.Commit(value, true)
	next := f.state
	next.Open = false
	f.setState(next)
	return f.state
}

// SelectToday selects the current day.
func (f *Field) SelectToday() State {
	return f.Select(f.resolver.Now())
}

// TodayDisabled reports whether the committed value is already today.
func (f *Field) TodayDisabled() bool {
	return f.SelectedDay().SameDay(f.resolver.Now())
}

// SelectedDay returns the committed value as a TimePoint, invalid when empty.
func (f *Field) SelectedDay() moment.TimePoint {
	if f.state.Value == "" {
		return f.resolver.Invalid()
	}
	return f.resolver.Parse(f.state.Value, f.canonical())
}

// Commit applies candidate:
//
//  1. resolve candidate through the input formats;
//  2. when it does not resolve (and is not empty) or is not strictly between
//     the bounds, resolve the committed value instead;
//  3. a valid result whose canonical string differs from the committed value
//     replaces it, clears the error and moves the window to its month;
//  4. an invalid result clears the value and the error;
//  5. when notify is set the listener always hears the canonical value.
func (f *Field) Commit(candidate string, notify bool) State {
	tp := f.resolver.Parse(candidate, f.formats...)
	fellBack := false
	if (candidate != "" && !tp.Valid()) || !f.inBounds(tp) {
		tp = f.resolver.Parse(f.state.Value, f.formats...)
		fellBack = true
	}

	next := f.state
	value := ""
	var outcome Outcome
	if tp.Valid() {
		value = tp.Format(f.canonical())
		switch {
		case value != f.state.Value:
			next.Value = value
			next.Window = monthOf(tp)
			next.Error = ""
			outcome = OutcomeCommitted
		case fellBack:
			outcome = OutcomeReverted
		default:
			outcome = OutcomeUnchanged
		}
	} else {
		next.Value = ""
		next.Error = ""
		outcome = OutcomeCleared
	}
	f.setState(next)

	f.logger.Debug("date field commit",
		"candidate", candidate,
		"value", value,
		"outcome", string(outcome),
		"notify", notify,
	)
	if f.observer != nil {
		f.observer.Committed(outcome)
	}
	if notify {
		f.deliver(value, tp.Valid())
	}
	return f.state
}

// Sync applies a value supplied by the owning form. The listener is not
// notified. An external error message is mirrored when it changes.
func (f *Field) Sync(value any, errMsg string) State {
	next := f.state

	tp := f.resolveExternal(value)
	v := ""
	if !isEmptyValue(value) {
		v = tp.Format(f.canonical())
	}
	if v != f.state.Value {
		next.Value = v
		next.Window = monthOf(tp)
		buffered := v
		f.buffer = &buffered
		next.Input = f.buffer
	}
	if errMsg != f.lastError {
		next.Error = errMsg
		f.lastError = errMsg
	}
	f.setState(next)
	return f.state
}

// NextMonth shows the following calendar month.
func (f *Field) NextMonth() State { return f.shiftMonth(1) }

// PrevMonth shows the preceding calendar month.
func (f *Field) PrevMonth() State { return f.shiftMonth(-1) }

func (f *Field) shiftMonth(n int) State {
	next := f.state
	next.Window = monthOf(f.state.Window.Start.AddMonths(n))
	f.setState(next)
	return f.state
}

// Flush delivers a pending debounced notification immediately.
func (f *Field) Flush() {
	if f.debounce != nil {
		f.debounce.flush()
	}
}

func (f *Field) deliver(value string, valid bool) {
	if f.debounce != nil {
		f.debounce.call(value, valid)
		return
	}
	f.emit(value, valid)
}

// emit reaches the listener. A debounced burst passes through here once.
func (f *Field) emit(value string, valid bool) {
	if f.observer != nil {
		f.observer.Notified()
	}
	f.notify(value, valid)
}

// pending is the buffered input, or the committed value when nothing was typed.
func (f *Field) pending() string {
	if f.buffer == nil {
		return f.state.Value
	}
	return *f.buffer
}

func (f *Field) inBounds(tp moment.TimePoint) bool {
	if f.min.Valid() && !tp.After(f.min) {
		return false
	}
	if f.max.Valid() && !tp.Before(f.max) {
		return false
	}
	return true
}

func (f *Field) setState(s State) {
	s.Header = s.Window.Start.Format(s.Presentation.HeaderDateFormat)
	f.state = s
}

// resolveExternal reads an initial or synced value; anything unreadable
// becomes now.
func (f *Field) resolveExternal(value any) moment.TimePoint {
	tp := f.resolve(value)
	if !tp.Valid() {
		return f.resolver.Now()
	}
	return tp
}

// resolve reads a value handed in by code rather than typed. ISO strings win
// over the input formats, which would otherwise misread them in day-first
// locales.
func (f *Field) resolve(value any) moment.TimePoint {
	if s, ok := value.(string); ok && moment.IsISO(s) {
		if tp := f.resolver.ParseISO(s); tp.Valid() {
			return tp
		}
	}
	return f.resolver.Resolve(value, f.formats...)
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// derivePlaceholder masks every character except separators.
func derivePlaceholder(sample string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '.' {
			return r
		}
		return '-'
	}, sample)
}
