package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/drivers-report-service/internal/observability"
)

// TimeDefaults fill in locale and time zone for time option requests.
type TimeDefaults struct {
	Locale   string
	TimeZone string
	Clock    clockwork.Clock
}

// Option configures a Server.
type Option func(*Server)

// WithFields exposes the /v1/fields routes.
func WithFields(store FieldStore) Option {
	return func(s *Server) { s.fields = store }
}

// WithPublisher publishes notifications produced by HTTP field events.
func WithPublisher(p Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithRankings exposes the /v1/maps routes.
func WithRankings(svc RankingService) Option {
	return func(s *Server) { s.rankings = svc }
}

// WithTimeOptions exposes the /v1/time routes.
func WithTimeOptions(d TimeDefaults) Option {
	return func(s *Server) { s.timeDefaults = &d }
}

// WithMetrics records request counts and observer metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRateLimit limits each client to rps requests per second with the
// given burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) { s.limiter = newClientLimiter(rps, burst) }
}

// Server exposes health, readiness, metrics, and the /v1 API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger

	fields    FieldStore
	publisher Publisher
	rankings  RankingService
	metrics   *observability.Metrics
	limiter   *clientLimiter

	timeDefaults *TimeDefaults
	times        *timeOptions
}

// NewServer creates an HTTP server with /healthz, /readyz, and /metrics routes
// plus whichever /v1 routes the options enable.
func NewServer(addr string, ready sharedobs.ReadinessChecker, logger *slog.Logger, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timeDefaults != nil {
		s.times = newTimeOptions(*s.timeDefaults, s.metrics, logger)
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	api := http.NewServeMux()
	if s.times != nil {
		api.HandleFunc("POST /v1/time/options", s.handleTimeOptions)
		api.HandleFunc("POST /v1/time/normalize", s.handleTimeNormalize)
	}
	if s.fields != nil {
		api.HandleFunc("POST /v1/fields", s.handleCreateField)
		api.HandleFunc("GET /v1/fields/{id}", s.handleGetField)
		api.HandleFunc("POST /v1/fields/{id}/events", s.handleFieldEvent)
		api.HandleFunc("DELETE /v1/fields/{id}", s.handleDeleteField)
	}
	if s.rankings != nil {
		api.HandleFunc("GET /v1/maps", s.handleListMaps)
		api.HandleFunc("GET /v1/maps/{id}", s.handleMapData)
		api.HandleFunc("GET /v1/maps/{id}/listing", s.handleListing)
		api.HandleFunc("GET /v1/maps/{id}/cities/{cityState}", s.handleCityProfile)
	}
	mux.Handle("/v1/", s.rateLimit(api))

	s.httpServer.Handler = s.instrument(mux)
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a request body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
