package middleware

import (
	"net/http"
	"sync"
	"time"
)

// ipLimiter throttles callers by IP with a token bucket per address. It
// shields the voice webhook endpoints, where a misbehaving telephony
// provider can retry aggressively.
type ipLimiter struct {
	mu    sync.Mutex
	calls map[string]*callBucket
	rate  float64
	burst float64
}

type callBucket struct {
	tokens float64
	seen   time.Time
}

func newIPLimiter(rate float64, burst int) *ipLimiter {
	l := &ipLimiter{
		calls: make(map[string]*callBucket),
		rate:  rate,
		burst: float64(burst),
	}
	go l.evictIdle()
	return l
}

// allow refills the caller's bucket for the time elapsed since its last
// request and spends one token if available.
func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.calls[ip]
	if !ok {
		b = &callBucket{tokens: l.burst, seen: now}
		l.calls[ip] = b
	}

	b.tokens += now.Sub(b.seen).Seconds() * l.rate
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// evictIdle drops buckets for addresses that have gone quiet, so the map
// does not grow without bound across long uptimes.
func (l *ipLimiter) evictIdle() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)
		l.mu.Lock()
		for ip, b := range l.calls {
			if b.seen.Before(cutoff) {
				delete(l.calls, ip)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimit returns a middleware answering 429 once a caller exceeds rate
// requests per second with the given burst headroom.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := newIPLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// RealIP runs earlier in the chain and rewrites RemoteAddr
			// from the proxy headers.
			if !limiter.allow(r.RemoteAddr, time.Now()) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
