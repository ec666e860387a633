package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/dropDatabas3/stockauth/internal/autherr"
	"github.com/dropDatabas3/stockauth/internal/observability/logger"
)

// IPLimiter mantiene un token bucket por IP. Los buckets sin uso expiran.
type IPLimiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	buckets *cache.Cache
}

// NewIPLimiter retorna nil si rps <= 0 (sin límite).
func NewIPLimiter(rps float64, burst int) *IPLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &IPLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: cache.New(10*time.Minute, time.Minute),
	}
}

func (l *IPLimiter) bucket(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.buckets.Get(ip); ok {
		l.buckets.SetDefault(ip, v)
		return v.(*rate.Limiter)
	}
	b := rate.NewLimiter(l.rps, l.burst)
	l.buckets.SetDefault(ip, b)
	return b
}

// Allow consume un token del bucket de ip.
func (l *IPLimiter) Allow(ip string) bool {
	return l.bucket(ip).Allow()
}

// WithIPRateLimit responde 429 RATE_LIMITED cuando la IP agota su bucket.
// /healthz y /metrics no cuentan.
func WithIPRateLimit(l *IPLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			ip := clientIP(r)
			if !l.Allow(ip) {
				logger.From(r.Context()).Warn("ip rate limited", logger.ClientIP(ip))
				w.Header().Set("Retry-After", "1")
				WriteError(w, autherr.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
