package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
)

// clientLimiters hands out one token bucket per client address. Buckets
// idle for longer than idleTTL are dropped during the next sweep, which runs
// inline on lookup so no background goroutine outlives the router.
type clientLimiters struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiters(perMinute, burst int, idleTTL time.Duration) *clientLimiters {
	return &clientLimiters{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

func (c *clientLimiters) get(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) >= c.idleTTL {
		for k, b := range c.buckets {
			if now.Sub(b.lastSeen) > c.idleTTL {
				delete(c.buckets, k)
			}
		}
		c.lastSweep = now
	}

	b, ok := c.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

func (c *clientLimiters) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buckets)
}

// RateLimitConfig sets the per-client budget. TrustedProxies lists the
// CIDRs of load balancers whose X-Forwarded-For and X-Real-IP headers may be
// believed; requests from any other peer are keyed on their own address.
type RateLimitConfig struct {
	PerMinute      int
	Burst          int
	TrustedProxies []string
}

// RateLimit throttles each client to cfg.PerMinute requests with the given
// burst. It guards the credential endpoints against password guessing.
// A non-positive PerMinute disables limiting.
func RateLimit(cfg RateLimitConfig, l *slog.Logger) func(http.Handler) http.Handler {
	if cfg.PerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	burst := max(cfg.Burst, 1)
	limiters := newClientLimiters(cfg.PerMinute, burst, 5*time.Minute)
	proxies := parseCIDRs(cfg.TrustedProxies, l)
	retryAfter := strconv.Itoa(max(1, 60/cfg.PerMinute))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientAddr(r, proxies)
			if !limiters.get(ip).Allow() {
				if l != nil {
					l.WarnContext(r.Context(), "rate limit exceeded",
						slog.String("client", ip),
						slog.String("path", r.URL.Path),
					)
				}
				w.Header().Set("Retry-After", retryAfter)
				httputil.WriteError(w, r, apperrors.RateLimited("too many requests, slow down"), l)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr returns the peer address. Only when the peer is a trusted proxy
// is the first X-Forwarded-For hop, then X-Real-IP, used instead.
func clientAddr(r *http.Request, trusted []*net.IPNet) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !containsIP(trusted, net.ParseIP(host)) {
		return host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
			return ip.String()
		}
	}
	return host
}
