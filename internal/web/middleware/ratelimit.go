package middleware

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/shipsort/internal/core"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// visitorTTL is how long an idle client's bucket is remembered.
const visitorTTL = 10 * time.Minute

// RateLimiter is a per-client-IP token bucket. Idle buckets expire, so
// memory stays bounded by the number of recently active clients.
type RateLimiter struct {
	perMin   int
	limit    rate.Limit
	burst    int
	visitors *cache.Cache
}

// NewRateLimiter allows perMinute requests per IP with a burst of the same size.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		perMin:   perMinute,
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
		visitors: cache.New(visitorTTL, visitorTTL),
	}
}

func (rl *RateLimiter) limiter(ip string) *rate.Limiter {
	if v, ok := rl.visitors.Get(ip); ok {
		rl.visitors.Set(ip, v, cache.DefaultExpiration)
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	if err := rl.visitors.Add(ip, l, cache.DefaultExpiration); err != nil {
		if v, ok := rl.visitors.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

// Allow reports whether ip may make a request now and consumes a token.
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.limiter(ip).Allow()
}

// Middleware rejects requests over the limit with 429 and a Retry-After hint.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := rl.limiter(ClientIP(r))
		if !l.Allow() {
			retry := int(math.Ceil(60 / float64(max(rl.perMin, 1))))
			w.Header().Set("Retry-After", strconv.Itoa(max(1, retry)))
			msg := core.MapError(errRateLimited)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   msg.Message,
				"message": msg.Message,
				"action":  msg.Action,
				"code":    msg.Code,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type rateLimitError struct{}

func (rateLimitError) Error() string { return "rate limit exceeded" }

var errRateLimited error = rateLimitError{}
