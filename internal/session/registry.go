// Package session keeps live date fields addressable by id so that events
// arriving over HTTP or Kafka can drive them.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/drivers-report-service/internal/datefield"
	"github.com/couchcryptid/drivers-report-service/internal/domain"
)

// ErrFieldNotFound is returned for events addressed to an unknown field.
var ErrFieldNotFound = errors.New("field not found")

// Defaults fill in a FieldConfig's locale and time zone when it leaves them
// empty.
type Defaults struct {
	Locale   string
	TimeZone string
}

// Registry owns the date fields. A field is not safe for concurrent use, so
// each one sits behind its own mutex; the registry lock only guards the map.
type Registry struct {
	defaults Defaults
	clock    clockwork.Clock
	observer datefield.Observer
	logger   *slog.Logger

	mu     sync.RWMutex
	fields map[string]*entry
}

type entry struct {
	mu    sync.Mutex
	field *datefield.Field

	// Debounced notifications arrive from a timer goroutine without mu.
	outboxMu sync.Mutex
	outbox   []domain.Notification
	cause    domain.EventType
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the clock every field reads "now" from.
func WithClock(c clockwork.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithObserver attaches a commit observer to every field.
func WithObserver(o datefield.Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// NewRegistry creates an empty Registry.
func NewRegistry(defaults Defaults, logger *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		defaults: defaults,
		clock:    clockwork.NewRealClock(),
		logger:   logger,
		fields:   make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create adds a field under a fresh id.
func (r *Registry) Create(cfg domain.FieldConfig) (string, datefield.State, error) {
	id := uuid.NewString()
	state, _, err := r.Configure(id, cfg)
	if err != nil {
		return "", datefield.State{}, err
	}
	return id, state, nil
}

// Configure creates the field id, replacing any field already registered
// under it. Notifications still owed by the replaced field are returned.
func (r *Registry) Configure(id string, cfg domain.FieldConfig) (datefield.State, []domain.Notification, error) {
	e := &entry{}
	field, err := datefield.New(r.fieldConfig(id, cfg, e))
	if err != nil {
		return datefield.State{}, nil, fmt.Errorf("configure field %s: %w", id, err)
	}
	e.field = field

	r.mu.Lock()
	old := r.fields[id]
	r.fields[id] = e
	r.mu.Unlock()

	var owed []domain.Notification
	if old != nil {
		old.mu.Lock()
		old.setCause(domain.EventConfigure)
		old.field.Flush()
		owed = old.drain()
		old.mu.Unlock()
	}
	r.logger.Debug("date field configured", "field_id", id, "replaced", old != nil)
	return field.State(), owed, nil
}

// Get returns the current state of field id.
func (r *Registry) Get(id string) (datefield.State, error) {
	e, err := r.lookup(id)
	if err != nil {
		return datefield.State{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.field.State(), nil
}

// Delete removes field id and returns any notification it still owed.
func (r *Registry) Delete(id string) ([]domain.Notification, error) {
	r.mu.Lock()
	e, ok := r.fields[id]
	delete(r.fields, id)
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.setCause(domain.EventFlush)
	e.field.Flush()
	return e.drain(), nil
}

// Len returns the number of registered fields.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fields)
}

// Pending drains notifications that debounce timers delivered since each
// field last saw an event, ordered by field id.
func (r *Registry) Pending() []domain.Notification {
	r.mu.RLock()
	ids := slices.Sorted(maps.Keys(r.fields))
	entries := make([]*entry, len(ids))
	for i, id := range ids {
		entries[i] = r.fields[id]
	}
	r.mu.RUnlock()

	var out []domain.Notification
	for _, e := range entries {
		out = append(out, e.drain()...)
	}
	return out
}

// Apply runs ev against its field and returns the new state together with
// every notification the field produced, including debounced ones that
// fired since the previous event.
func (r *Registry) Apply(ctx context.Context, ev domain.FieldEvent) (datefield.State, []domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		return datefield.State{}, nil, err
	}
	if ev.Type == domain.EventConfigure {
		if ev.Config == nil {
			return datefield.State{}, nil, errors.New("configure without config")
		}
		return r.Configure(ev.FieldID, *ev.Config)
	}

	e, err := r.lookup(ev.FieldID)
	if err != nil {
		return datefield.State{}, nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.setCause(ev.Type)
	f := e.field
	switch ev.Type {
	case domain.EventInput:
		f.Input(ev.Text())
	case domain.EventBlur:
		f.Blur(ev.Text())
	case domain.EventOpen:
		f.SetOpen(true)
	case domain.EventClose:
		f.SetOpen(false)
	case domain.EventSelect:
		f.Select(ev.Text())
	case domain.EventToday:
		f.SelectToday()
	case domain.EventNext:
		f.NextMonth()
	case domain.EventPrev:
		f.PrevMonth()
	case domain.EventSync:
		var value any
		if ev.Value != nil {
			value = *ev.Value
		}
		f.Sync(value, ev.Error)
	case domain.EventCommit:
		f.Commit(ev.Text(), ev.Notify)
	case domain.EventFlush:
		f.Flush()
	default:
		return f.State(), nil, fmt.Errorf("unsupported event type %q", ev.Type)
	}
	return f.State(), e.drain(), nil
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.fields[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, id)
	}
	return e, nil
}

func (r *Registry) fieldConfig(id string, cfg domain.FieldConfig, e *entry) datefield.Config {
	locale := cfg.Locale
	if locale == "" {
		locale = r.defaults.Locale
	}
	zone := cfg.TimeZone
	if zone == "" {
		zone = r.defaults.TimeZone
	}

	out := datefield.Config{
		InputDateFormat: cfg.InputDateFormat,
		Locale:          locale,
		TimeZone:        zone,
		Clock:           r.clock,
		Debounce:        time.Duration(cfg.DebounceMS) * time.Millisecond,
		Placeholder:     cfg.Placeholder,
		Error:           cfg.Error,
		Presentation:    cfg.Presentation,
		Observer:        r.observer,
		Logger:          r.logger.With("field_id", id),
		OnDateSelect:    e.listener(id),
	}
	if cfg.Value != nil {
		out.Value = *cfg.Value
	}
	if cfg.MinimumDate != "" {
		out.MinimumDate = cfg.MinimumDate
	}
	if cfg.MaximumDate != "" {
		out.MaximumDate = cfg.MaximumDate
	}
	return out
}

// listener queues notifications, stamped with the event that caused them.
func (e *entry) listener(id string) datefield.SelectFunc {
	return func(value string, valid bool) {
		e.outboxMu.Lock()
		defer e.outboxMu.Unlock()
		e.outbox = append(e.outbox, domain.NewNotification(id, value, valid, e.cause))
	}
}

func (e *entry) setCause(t domain.EventType) {
	e.outboxMu.Lock()
	e.cause = t
	e.outboxMu.Unlock()
}

func (e *entry) drain() []domain.Notification {
	e.outboxMu.Lock()
	defer e.outboxMu.Unlock()
	out := e.outbox
	e.outbox = nil
	return out
}
