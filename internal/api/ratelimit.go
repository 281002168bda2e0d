package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	throttleSweepEvery = 5 * time.Minute
	throttleIdleExpiry = 10 * time.Minute
)

// throttle tracks one token bucket per client IP. Buckets for clients
// that have gone quiet are swept opportunistically from take.
type throttle struct {
	mu        sync.Mutex
	clients   map[string]*clientBucket
	perSecond rate.Limit
	burst     int
	lastSweep time.Time
}

type clientBucket struct {
	bucket *rate.Limiter
	active time.Time
}

// newThrottle builds a throttle refilling perSecond tokens with the
// given burst capacity per client.
func newThrottle(perSecond float64, burst int) *throttle {
	return &throttle{
		clients:   make(map[string]*clientBucket),
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// take consumes one token for ip, reporting whether the request may
// proceed.
func (t *throttle) take(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.sweepStale(now)

	c, ok := t.clients[ip]
	if !ok {
		c = &clientBucket{bucket: rate.NewLimiter(t.perSecond, t.burst)}
		t.clients[ip] = c
	}
	c.active = now
	return c.bucket.Allow()
}

// sweepStale drops buckets idle past throttleIdleExpiry, at most once
// per throttleSweepEvery. Caller holds t.mu.
func (t *throttle) sweepStale(now time.Time) {
	if now.Sub(t.lastSweep) <= throttleSweepEvery {
		return
	}
	for ip, c := range t.clients {
		if now.Sub(c.active) > throttleIdleExpiry {
			delete(t.clients, ip)
		}
	}
	t.lastSweep = now
}

// rateLimitMiddleware rejects requests over the per-IP budget with 429
// and a Retry-After hint.
func rateLimitMiddleware(t *throttle, trustProxy bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustProxy)
			if !t.take(ip) {
				logger.Warn("rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
					"method", r.Method,
				)
				w.Header().Set("Retry-After", "1")
				WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the address a request should be throttled under.
// Proxy headers are consulted only when trustProxy is set, and only
// values that parse as IPs are accepted as throttle keys.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := headerIP(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
		if ip := headerIP(r.Header.Get("X-Forwarded-For")); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// headerIP parses the first comma-separated entry of a forwarding
// header, returning "" when it is absent or not a valid IP.
func headerIP(value string) string {
	if value == "" {
		return ""
	}
	if first, _, ok := strings.Cut(value, ","); ok {
		value = first
	}
	ip := net.ParseIP(strings.TrimSpace(value))
	if ip == nil {
		return ""
	}
	return ip.String()
}
