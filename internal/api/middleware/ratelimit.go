package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Togather-Foundation/eventreg/internal/api/problem"
	"github.com/Togather-Foundation/eventreg/internal/config"
	"golang.org/x/time/rate"
)

const (
	limiterTTL      = 15 * time.Minute
	cleanupInterval = 5 * time.Minute
)

// exemptPaths are probed by orchestrators and scrapers and never limited.
var exemptPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// RateLimit applies a per-client token bucket of cfg.PublicPerMinute requests
// with an equal burst. A limit of 0 disables the middleware. The cleanup
// goroutine stops when ctx is done.
func RateLimit(ctx context.Context, cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.PublicPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	store := newLimiterStore(cfg.PublicPerMinute)
	go store.cleanupLoop(ctx)

	trusted := parseCIDRs(cfg.TrustedProxyCIDRs)
	retryAfter := strconv.Itoa(int(store.interval.Seconds() + 0.999))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exemptPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			if !store.limiter(clientKey(r, trusted)).Allow() {
				w.Header().Set("Retry-After", retryAfter)
				problem.Write(w, r, http.StatusTooManyRequests, problem.TypeRateLimit, "Too many requests", nil, "",
					problem.WithDetail("rate limit exceeded, retry later"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	interval time.Duration
	burst    int
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(perMinute int) *limiterStore {
	return &limiterStore{
		limiters: make(map[string]*limiterEntry),
		interval: time.Minute / time.Duration(perMinute),
		burst:    perMinute,
		now:      time.Now,
	}
}

func (s *limiterStore) limiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if entry, ok := s.limiters[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	limiter := rate.NewLimiter(rate.Every(s.interval), s.burst)
	s.limiters[key] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}

func (s *limiterStore) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-ctx.Done():
			return
		}
	}
}

// cleanup removes limiters idle for longer than limiterTTL.
func (s *limiterStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > limiterTTL {
			delete(s.limiters, key)
		}
	}
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// clientKey identifies the client. X-Forwarded-For and X-Real-IP are only
// honoured when the direct peer is a trusted proxy.
func clientKey(r *http.Request, trusted []*net.IPNet) string {
	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	}

	if isTrustedProxy(remoteIP, trusted) {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}
	return remoteIP
}

func isTrustedProxy(ip string, trusted []*net.IPNet) bool {
	if len(trusted) == 0 {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, cidr := range trusted {
		if cidr.Contains(parsed) {
			return true
		}
	}
	return false
}

// parseCIDRs skips malformed entries.
func parseCIDRs(values []string) []*net.IPNet {
	var out []*net.IPNet
	for _, value := range values {
		_, cidr, err := net.ParseCIDR(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		out = append(out, cidr)
	}
	return out
}
