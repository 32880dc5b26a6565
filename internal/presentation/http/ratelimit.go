package httppresentation

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter *rate.Limiter
	mu      sync.Mutex
	last    time.Time
}

// RateLimiter keeps one token bucket per caller, keyed by subject or remote IP.
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	clients sync.Map // string -> *clientLimiter
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{rps: rate.Limit(rps), burst: burst}
}

func (l *RateLimiter) get(key string) *clientLimiter {
	if v, ok := l.clients.Load(key); ok {
		return v.(*clientLimiter)
	}
	v, _ := l.clients.LoadOrStore(key, &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)})
	return v.(*clientLimiter)
}

// Allow spends one token for key.
func (l *RateLimiter) Allow(key string, now time.Time) bool {
	c := l.get(key)
	c.mu.Lock()
	c.last = now
	c.mu.Unlock()
	return c.limiter.AllowN(now, 1)
}

// Sweep forgets callers idle since before cutoff and returns how many were dropped.
func (l *RateLimiter) Sweep(cutoff time.Time) int {
	n := 0
	l.clients.Range(func(key, val any) bool {
		c := val.(*clientLimiter)
		c.mu.Lock()
		idle := c.last.Before(cutoff)
		c.mu.Unlock()
		if idle {
			l.clients.Delete(key)
			n++
		}
		return true
	})
	return n
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(callerKey(r), time.Now()) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerKey(r *http.Request) string {
	if id, ok := IdentityFrom(r.Context()); ok {
		return "sub:" + id.Subject
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return "ip:" + strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
