package web

import (
	"net"
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const maxTrackedClients = 4096

// RateLimiter keeps one token bucket per client IP. The least recently seen
// clients are evicted once maxTrackedClients is reached.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *lru.Cache[string, *rate.Limiter]
}

// NewRateLimiter allows rps requests per second per IP with the given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	buckets, _ := lru.New[string, *rate.Limiter](maxTrackedClients)
	return &RateLimiter{limit: rate.Limit(rps), burst: burst, buckets: buckets}
}

func (rl *RateLimiter) Allow(ip string) bool {
	l, ok := rl.buckets.Get(ip)
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		if prev, found, _ := rl.buckets.PeekOrAdd(ip, l); found {
			l = prev
		}
	}
	return l.Allow()
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
