// Package middleware provides the HTTP middleware stack for webdiner.
package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/webdiner/webdiner/pkg/response"
	"golang.org/x/time/rate"
)

// RateLimiterConfig mirrors a memory-store token bucket: Rate events per
// second with Burst headroom, visitors forgotten after ExpiresIn idle.
type RateLimiterConfig struct {
	Rate      rate.Limit
	Burst     int
	ExpiresIn time.Duration
}

// PerMinute builds a config allowing n requests per minute per client.
func PerMinute(n int) RateLimiterConfig {
	if n <= 0 {
		n = 60
	}
	burst := n / 10
	if burst < 5 {
		burst = 5
	}
	return RateLimiterConfig{
		Rate:      rate.Limit(float64(n) / 60),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterStore struct {
	cfg       RateLimiterConfig
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(cfg RateLimiterConfig) *limiterStore {
	if cfg.ExpiresIn <= 0 {
		cfg.ExpiresIn = 3 * time.Minute
	}
	return &limiterStore{
		cfg:      cfg,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (s *limiterStore) allow(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > s.cfg.ExpiresIn {
		for k, v := range s.visitors {
			if now.Sub(v.lastSeen) > s.cfg.ExpiresIn {
				delete(s.visitors, k)
			}
		}
		s.lastSweep = now
	}

	v, ok := s.visitors[id]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.cfg.Rate, s.cfg.Burst)}
		s.visitors[id] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RateLimit limits each client IP with its own token bucket.
//
//	r.Use(middleware.RateLimit(middleware.PerMinute(config.RateLimitPerMinute())))
func RateLimit(cfg RateLimiterConfig) func(http.Handler) http.Handler {
	store := newLimiterStore(cfg)
	retry := "1"
	if cfg.Rate > 0 && cfg.Rate < 1 {
		retry = strconv.Itoa(int(math.Ceil(1 / float64(cfg.Rate))))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.allow(clientIP(r)) {
				w.Header().Set("Retry-After", retry)
				response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
