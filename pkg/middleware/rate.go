// Package middleware holds the storefront's HTTP middleware.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

// Limiter counts requests per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type bucket struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a per-process Limiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	buckets map[string]*bucket
	now     func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{max: max, window: window, buckets: map[string]*bucket{}, now: time.Now}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}
	b.count++
	return b.count <= l.max, nil
}

// Sweep drops buckets whose window has closed. Without it the map grows
// with every client ever seen.
func (l *MemoryLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now, n := l.now(), 0
	for k, b := range l.buckets {
		if now.After(b.resetAt) {
			delete(l.buckets, k)
			n++
		}
	}
	return n
}

// RateLimit rejects clients over the limiter's budget with 429. Limiter
// errors let the request through. Authenticated callers are counted per
// user; others per client IP, where X-Forwarded-For is only read from the
// peers listed in trustedProxies.
func RateLimit(l Limiter, trustedProxies []string) func(http.Handler) http.Handler {
	trusted := make(map[string]bool, len(trustedProxies))
	for _, p := range trustedProxies {
		trusted[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), rateKey(r, trusted))
			if err != nil {
				logger.WithCtx(r.Context()).Warn("rate limiter unavailable", "error", err)
				ok = true
			}
			if !ok {
				response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateKey(r *http.Request, trusted map[string]bool) string {
	if id := auth.FromCtx(r.Context()); id.UserID != "" {
		return "user:" + id.UserID
	}
	return "ip:" + clientIP(r, trusted)
}

// clientIP is the peer address unless the peer is a trusted proxy; then it
// is the right-most X-Forwarded-For hop that is not itself trusted.
func clientIP(r *http.Request, trusted map[string]bool) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if !trusted[ip] {
		return ip
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !trusted[hop] {
			return hop
		}
		ip = hop
	}
	return ip
}
