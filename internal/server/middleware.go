package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	apperrors "github.com/zsiec/timecode/internal/errors"
	"github.com/zsiec/timecode/internal/logger"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Number of HTTP requests currently being processed",
	})

	httpRequestsThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "http_requests_throttled_total",
		Help: "Total number of HTTP requests rejected by the rate limiter",
	})
)

// requestIDMiddleware echoes the request ID, assigning one when missing.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(logger.RequestIDHeader, logger.EnsureRequestID(r))
		next.ServeHTTP(w, r)
	})
}

func isProbe(path string) bool {
	return path == "/health" || path == "/ready" || path == "/live"
}

// routeLabel returns the route template so marker IDs and frame numbers do
// not explode label cardinality.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// metricsMiddleware tracks request metrics and logs completion.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isProbe(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		rw := logger.NewResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.StatusCode())
		route := routeLabel(r)

		httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()

		logger.FromContext(r.Context()).WithFields(logger.Fields{
			"status":      rw.StatusCode(),
			"duration_ms": duration * 1000,
		}).Info("Request completed")
	})
}

// corsMiddleware handles CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware recovers from panics
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.errorHandler.HandlePanic(w, r, err)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware rejects clients that exceed their token bucket.
// Probes are never limited.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil || isProbe(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if !s.limiter.allow(s.proxies.clientKey(r)) {
			httpRequestsThrottled.Inc()
			w.Header().Set("Retry-After", "1")
			s.errorHandler.HandleError(w, r, apperrors.NewRateLimitError("Too many requests"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// trustedProxies holds the peers allowed to report the client address in
// X-Forwarded-For or X-Real-IP.
type trustedProxies []*net.IPNet

// parseTrustedProxies accepts IP addresses and CIDR ranges. Invalid entries
// are skipped and reported in the returned error.
func parseTrustedProxies(entries []string) (trustedProxies, error) {
	var (
		nets    trustedProxies
		invalid []string
	)
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if _, n, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, n)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			invalid = append(invalid, entry)
			continue
		}
		bits := 8 * net.IPv4len
		if ip.To4() == nil {
			bits = 8 * net.IPv6len
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	if len(invalid) > 0 {
		return nets, fmt.Errorf("invalid trusted proxies: %s", strings.Join(invalid, ", "))
	}
	return nets, nil
}

func (t trustedProxies) contains(ip net.IP) bool {
	for _, n := range t {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// clientKey identifies the client by IP address without port. Forwarding
// headers are honoured only when the connecting peer is a trusted proxy;
// X-Forwarded-For is read right to left up to the first untrusted hop.
func (t trustedProxies) clientKey(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	peer = strings.TrimSpace(peer)

	if ip := net.ParseIP(peer); ip == nil || !t.contains(ip) {
		return peer
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		hops := strings.Split(forwarded, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			ip := net.ParseIP(strings.TrimSpace(hops[i]))
			if ip == nil {
				return peer
			}
			if !t.contains(ip) || i == 0 {
				return ip.String()
			}
		}
	}

	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return peer
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client.
type clientLimiter struct {
	mu      sync.Mutex
	clients map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		clients: make(map[string]*limiterEntry),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

func (l *clientLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.clients[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// evict drops clients idle for longer than idle.
func (l *clientLimiter) evict(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	n := 0
	for key, e := range l.clients {
		if e.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			n++
		}
	}
	return n
}

func (l *clientLimiter) cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evict(interval)
		case <-ctx.Done():
			return
		}
	}
}
