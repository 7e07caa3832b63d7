package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/drivers-report-service/internal/datefield"
	"github.com/couchcryptid/drivers-report-service/internal/domain"
	"github.com/couchcryptid/drivers-report-service/internal/session"
)

// FieldStore holds date fields addressed by id.
type FieldStore interface {
	Create(cfg domain.FieldConfig) (string, datefield.State, error)
	Get(id string) (datefield.State, error)
	Apply(ctx context.Context, ev domain.FieldEvent) (datefield.State, []domain.Notification, error)
	Delete(id string) ([]domain.Notification, error)
}

// Publisher writes serialized notifications to the sink topic.
type Publisher interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

type fieldResponse struct {
	FieldID       string                `json:"field_id"`
	State         *datefield.State      `json:"state,omitempty"`
	Notifications []domain.Notification `json:"notifications"`
	Published     bool                  `json:"published"`
}

func (s *Server) handleCreateField(w http.ResponseWriter, r *http.Request) {
	var cfg domain.FieldConfig
	if err := decodeJSON(w, r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	id, state, err := s.fields.Create(cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Location", "/v1/fields/"+id)
	sharedobs.WriteJSON(w, http.StatusCreated, fieldResponse{
		FieldID:       id,
		State:         &state,
		Notifications: []domain.Notification{},
	})
}

func (s *Server) handleGetField(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	state, err := s.fields.Get(id)
	if err != nil {
		s.writeFieldError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, fieldResponse{
		FieldID:       id,
		State:         &state,
		Notifications: []domain.Notification{},
	})
}

func (s *Server) handleFieldEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	ev, err := domain.ParseFieldEvent(domain.RawEvent{Key: []byte(id), Value: body})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if ev.FieldID != id {
		writeError(w, http.StatusBadRequest, "field_id does not match path")
		return
	}

	state, notes, err := s.fields.Apply(r.Context(), ev)
	if err != nil {
		s.writeFieldError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, fieldResponse{
		FieldID:       id,
		State:         &state,
		Notifications: nonNil(notes),
		Published:     s.publish(r.Context(), notes),
	})
}

func (s *Server) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	notes, err := s.fields.Delete(id)
	if err != nil {
		s.writeFieldError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, fieldResponse{
		FieldID:       id,
		Notifications: nonNil(notes),
		Published:     s.publish(r.Context(), notes),
	})
}

// publish sends notes to the sink. It reports false when there is no
// publisher, nothing to send, or the write failed; notifications are still
// returned to the caller in every case.
func (s *Server) publish(ctx context.Context, notes []domain.Notification) bool {
	if s.publisher == nil || len(notes) == 0 {
		return false
	}
	out := make([]domain.OutputEvent, 0, len(notes))
	for _, n := range notes {
		ev, err := domain.SerializeNotification(n)
		if err != nil {
			s.logger.Error("serialize notification", "field_id", n.FieldID, "error", err)
			return false
		}
		out = append(out, ev)
	}
	if err := s.publisher.LoadBatch(ctx, out); err != nil {
		s.logger.Error("publish notifications", "count", len(out), "error", err)
		return false
	}
	if s.metrics != nil {
		s.metrics.MessagesProduced.Add(float64(len(out)))
	}
	return true
}

func (s *Server) writeFieldError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrFieldNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func nonNil(notes []domain.Notification) []domain.Notification {
	if notes == nil {
		return []domain.Notification{}
	}
	return notes
}
