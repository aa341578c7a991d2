package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Limiter implements a fixed window request limit per client IP. Counts
// reset wholesale when the window rolls over.
type Limiter struct {
	limit  int
	window time.Duration

	mu          sync.Mutex
	windowStart time.Time
	counts      map[string]int

	now func() time.Time
}

// New creates a limiter allowing limit requests per client IP in each
// window.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:  limit,
		window: window,
		counts: make(map[string]int),
		now:    time.Now,
	}
}

// allow counts a request against the client's window. When refused, it also
// reports how long until the window resets.
func (l *Limiter) allow(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.windowStart) >= l.window {
		l.windowStart = now
		l.counts = make(map[string]int)
	}

	l.counts[ip]++
	if l.counts[ip] > l.limit {
		return false, l.windowStart.Add(l.window).Sub(now)
	}

	return true, 0
}

// Middleware refuses requests over the limit with a 429 and a structured
// error body.
func (l *Limiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			allowed, retryAfter := l.allow(ip)
			if !allowed {
				log.Info().Str("ip", ip).Msg("rate limit exceeded")

				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)

				response := struct {
					Error string `json:"error"`
				}{Error: "too many requests: slow down and retry in a minute"}
				if err := json.NewEncoder(w).Encode(response); err != nil {
					log.Info().Msgf("failed to write rate limit response: %v", err)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP identifies the caller, preferring the forwarding proxy's header
// over the socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
