package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/drivers-report-service/internal/datefield"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// EventType names a date-field interaction.
type EventType string

const (
	EventConfigure EventType = "configure"
	EventInput     EventType = "input"
	EventBlur      EventType = "blur"
	EventOpen      EventType = "open"
	EventClose     EventType = "close"
	EventSelect    EventType = "select"
	EventToday     EventType = "today"
	EventNext      EventType = "next"
	EventPrev      EventType = "prev"
	EventSync      EventType = "sync"
	EventCommit    EventType = "commit"
	EventFlush     EventType = "flush"
)

// FieldConfig is the wire form of a date field's configuration.
type FieldConfig struct {
	Value           *string                `json:"value"`
	MinimumDate     string                 `json:"minimum_date,omitempty"`
	MaximumDate     string                 `json:"maximum_date,omitempty"`
	InputDateFormat []string               `json:"input_date_format,omitempty"`
	Locale          string                 `json:"locale,omitempty"`
	TimeZone        string                 `json:"time_zone,omitempty"`
	Placeholder     string                 `json:"placeholder,omitempty"`
	Error           string                 `json:"error,omitempty"`
	DebounceMS      int                    `json:"debounce_ms,omitempty"`
	Presentation    datefield.Presentation `json:"presentation"`
}

// FieldEvent is one interaction with a date field, as carried on the source
// topic.
type FieldEvent struct {
	ID      string       `json:"id,omitempty"`
	FieldID string       `json:"field_id"`
	Type    EventType    `json:"type"`
	Value   *string      `json:"value,omitempty"`
	Error   string       `json:"error,omitempty"`
	Notify  bool         `json:"notify,omitempty"`
	Config  *FieldConfig `json:"config,omitempty"`

	ReceivedAt time.Time `json:"-"`
}

// Text returns the event value, or "" when absent.
func (e FieldEvent) Text() string {
	if e.Value == nil {
		return ""
	}
	return *e.Value
}

// NotificationType is the only notification kind emitted today.
const NotificationType = "date_selected"

// Notification is the listener callback of a date field, as published on the
// sink topic. Value is nil when the field was cleared.
type Notification struct {
	ID        string    `json:"id"`
	FieldID   string    `json:"field_id"`
	Type      string    `json:"type"`
	Value     *string   `json:"value"`
	Cause     EventType `json:"cause,omitempty"`
	EmittedAt time.Time `json:"emitted_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
