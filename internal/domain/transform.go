package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseFieldEvent deserializes a RawEvent's value into a FieldEvent. A missing
// field_id falls back to the message key.
func ParseFieldEvent(raw RawEvent) (FieldEvent, error) {
	var ev FieldEvent
	if err := json.Unmarshal(raw.Value, &ev); err != nil {
		return FieldEvent{}, fmt.Errorf("parse field event: %w", err)
	}

	ev.FieldID = strings.TrimSpace(ev.FieldID)
	if ev.FieldID == "" {
		ev.FieldID = string(raw.Key)
	}
	if ev.FieldID == "" {
		return FieldEvent{}, errors.New("parse field event: missing field_id")
	}

	t, err := normalizeEventType(string(ev.Type))
	if err != nil {
		return FieldEvent{}, fmt.Errorf("parse field event: %w", err)
	}
	ev.Type = t
	if ev.Type == EventConfigure && ev.Config == nil {
		return FieldEvent{}, errors.New("parse field event: configure without config")
	}
	if ev.Type == EventSelect && ev.Value == nil {
		return FieldEvent{}, errors.New("parse field event: select without value")
	}

	ev.ReceivedAt = raw.Timestamp
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = clock.Now()
	}
	if ev.ID == "" {
		ev.ID = generateID(ev.FieldID, string(ev.Type), raw.Topic, strconv.Itoa(raw.Partition), strconv.FormatInt(raw.Offset, 10))
	}
	return ev, nil
}

// NewNotification builds the sink message for a listener callback. An invalid
// value is published as null.
func NewNotification(fieldID, value string, valid bool, cause EventType) Notification {
	now := clock.Now().UTC()
	n := Notification{
		FieldID:   fieldID,
		Type:      NotificationType,
		Cause:     cause,
		EmittedAt: now,
	}
	if valid {
		n.Value = &value
	}
	n.ID = generateID(fieldID, string(cause), value, strconv.FormatInt(now.UnixNano(), 10))
	return n
}

// SerializeNotification encodes n for the sink topic, keyed by field id so
// every notification of one field lands on the same partition.
func SerializeNotification(n Notification) (OutputEvent, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize notification: %w", err)
	}
	return OutputEvent{
		Key:   []byte(n.FieldID),
		Value: data,
		Headers: map[string]string{
			"event_type": n.Type,
			"emitted_at": n.EmittedAt.Format(time.RFC3339),
		},
	}, nil
}

// generateID hashes its parts into a short deterministic id.
func generateID(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(hash[:8])
}

// normalizeEventType lowercases and validates an event type.
func normalizeEventType(value string) (EventType, error) {
	t := EventType(strings.ToLower(strings.TrimSpace(value)))
	switch t {
	case EventConfigure, EventInput, EventBlur, EventOpen, EventClose, EventSelect,
		EventToday, EventNext, EventPrev, EventSync, EventCommit, EventFlush:
		return t, nil
	case "":
		return "", errors.New("missing event type")
	default:
		return "", fmt.Errorf("unknown event type %q", value)
	}
}
