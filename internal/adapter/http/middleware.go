package http

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const headerRequestID = "X-Request-ID"

// clientLimiter keeps one token bucket per client address.
type clientLimiter struct {
	rps   rate.Limit
	burst int

	mu     sync.Mutex
	limits map[string]*rate.Limiter
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		rps:    rate.Limit(rps),
		burst:  burst,
		limits: make(map[string]*rate.Limiter),
	}
}

func (l *clientLimiter) allow(key string) bool {
	l.mu.Lock()
	limiter, ok := l.limits[key]
	if !ok {
		limiter = rate.NewLimiter(l.rps, l.burst)
		l.limits[key] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientKey(r)) {
			if s.metrics != nil {
				s.metrics.HTTPRateLimited.Inc()
			}
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the caller by the first X-Forwarded-For hop or the
// remote address.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument tags every request with an id, counts it and logs it.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if s.metrics != nil {
			s.metrics.RequestServed(r.Method, rec.status)
		}
		s.logger.Debug("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
