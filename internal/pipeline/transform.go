package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/drivers-report-service/internal/datefield"
	"github.com/couchcryptid/drivers-report-service/internal/domain"
)

// EventApplier runs a field event. session.Registry implements it.
type EventApplier interface {
	Apply(ctx context.Context, ev domain.FieldEvent) (datefield.State, []domain.Notification, error)
}

// pendingSource is implemented by appliers whose fields can notify between
// events, such as debounced fields.
type pendingSource interface {
	Pending() []domain.Notification
}

// FieldTransformer implements Transformer by applying field events and
// serializing the notifications they trigger.
type FieldTransformer struct {
	applier EventApplier
	logger  *slog.Logger
}

// NewTransformer creates a FieldTransformer.
func NewTransformer(applier EventApplier, logger *slog.Logger) *FieldTransformer {
	return &FieldTransformer{
		applier: applier,
		logger:  logger,
	}
}

func (t *FieldTransformer) Transform(ctx context.Context, raw domain.RawEvent) ([]domain.OutputEvent, error) {
	ev, err := domain.ParseFieldEvent(raw)
	if err != nil {
		return nil, err
	}

	state, notes, err := t.applier.Apply(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("apply %s to field %s: %w", ev.Type, ev.FieldID, err)
	}
	t.logger.Debug("field event applied",
		"event_id", ev.ID,
		"field_id", ev.FieldID,
		"type", string(ev.Type),
		"value", state.Value,
		"notifications", len(notes),
	)
	return serializeAll(notes)
}

// Sweep serializes notifications that fired without an event, if the applier
// can report them.
func (t *FieldTransformer) Sweep(_ context.Context) ([]domain.OutputEvent, error) {
	src, ok := t.applier.(pendingSource)
	if !ok {
		return nil, nil
	}
	notes := src.Pending()
	if len(notes) > 0 {
		t.logger.Debug("debounced notifications swept", "count", len(notes))
	}
	return serializeAll(notes)
}

func serializeAll(notes []domain.Notification) ([]domain.OutputEvent, error) {
	out := make([]domain.OutputEvent, 0, len(notes))
	for _, n := range notes {
		msg, err := domain.SerializeNotification(n)
		if err != nil {
			return nil, fmt.Errorf("serialize notification for field %s: %w", n.FieldID, err)
		}
		out = append(out, msg)
	}
	return out, nil
}
