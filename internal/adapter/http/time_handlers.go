package http

import (
	"log/slog"
	"net/http"
	"sync"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/drivers-report-service/internal/observability"
	"github.com/couchcryptid/drivers-report-service/internal/timeopts"
)

// timeOptions keeps the most recent Normalizer so repeated requests with the
// same parameters skip rebuilding the option list.
type timeOptions struct {
	defaults TimeDefaults
	logger   *slog.Logger
	observer timeopts.Observer

	mu      sync.Mutex
	current *timeopts.Normalizer
}

func newTimeOptions(d TimeDefaults, metrics *observability.Metrics, logger *slog.Logger) *timeOptions {
	t := &timeOptions{defaults: d, logger: logger}
	if metrics != nil {
		t.observer = metrics
	}
	return t
}

// normalizer returns a Normalizer for req, reusing the last one when its
// parameters are unchanged.
func (t *timeOptions) normalizer(req timeRequest) (*timeopts.Normalizer, error) {
	cfg := timeopts.Config{
		TimeFormat: req.TimeFormat,
		Interval:   req.Interval,
		Locale:     req.Locale,
		TimeZone:   req.TimeZone,
		Clock:      t.defaults.Clock,
	}
	if req.Minimum != nil {
		cfg.Minimum = *req.Minimum
	}
	if req.Maximum != nil {
		cfg.Maximum = *req.Maximum
	}
	if cfg.Locale == "" {
		cfg.Locale = t.defaults.Locale
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = t.defaults.TimeZone
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		opts := []timeopts.Option{timeopts.WithLogger(t.logger)}
		if t.observer != nil {
			opts = append(opts, timeopts.WithObserver(t.observer))
		}
		n, err := timeopts.New(cfg, opts...)
		if err != nil {
			return nil, err
		}
		t.current = n
		return n, nil
	}

	next, changed, err := t.current.Reconfigure(cfg)
	if err != nil {
		return nil, err
	}
	if changed {
		t.current = next
	}
	return next, nil
}

type timeRequest struct {
	TimeFormat string   `json:"time_format"`
	Interval   int      `json:"interval"`
	Minimum    *string  `json:"minimum"`
	Maximum    *string  `json:"maximum"`
	Locale     string   `json:"locale"`
	TimeZone   string   `json:"time_zone"`
	Values     []string `json:"values,omitempty"`
}

type timeOptionsResponse struct {
	TimeFormat string   `json:"time_format"`
	Minimum    string   `json:"minimum"`
	Maximum    string   `json:"maximum"`
	Options    []string `json:"options"`
}

type normalizeResult struct {
	Input      string  `json:"input"`
	Normalized *string `json:"normalized"`
	Valid      bool    `json:"valid"`
	InRange    bool    `json:"in_range"`
}

func (s *Server) handleTimeOptions(w http.ResponseWriter, r *http.Request) {
	var req timeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	n, err := s.times.normalizer(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, timeOptionsResponse{
		TimeFormat: n.Config().TimeFormat,
		Minimum:    n.MinimumTime(),
		Maximum:    n.MaximumTime(),
		Options:    n.Options(),
	})
}

func (s *Server) handleTimeNormalize(w http.ResponseWriter, r *http.Request) {
	var req timeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	n, err := s.times.normalizer(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results := make([]normalizeResult, 0, len(req.Values))
	for _, v := range req.Values {
		res := normalizeResult{Input: v}
		if out, ok := n.Normalize(v); ok {
			res.Normalized = &out
			res.Valid = true
			res.InRange = n.InRange(v)
		}
		results = append(results, res)
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
		"time_format": n.Config().TimeFormat,
		"results":     results,
	})
}
