// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// maxTrackedClients bounds the memory a limiter can use.
const maxTrackedClients = 10000

// window holds the request timestamps of one client.
type window struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// RateLimiter provides per-IP rate limiting using a sliding window.
// Idle clients are evicted once a full window passes without requests.
type RateLimiter struct {
	mu      sync.Mutex
	clients *expirable.LRU[string, *window]
	limit   int
	window  time.Duration
	now     func() time.Time

	// TrustProxy keys clients on X-Forwarded-For and X-Real-IP. Only set
	// it when a reverse proxy in front of the server overwrites them.
	TrustProxy bool
}

// NewRateLimiter creates a rate limiter that allows limit requests per window.
func NewRateLimiter(limit int, per time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: expirable.NewLRU[string, *window](maxTrackedClients, nil, per),
		limit:   limit,
		window:  per,
		now:     time.Now,
	}
}

// Allow records a request from key and reports whether it is within the
// limit. Rejected requests are not recorded.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	w, ok := rl.clients.Get(key)
	if !ok {
		w = &window{}
	}
	// Re-adding refreshes the entry's expiry.
	rl.clients.Add(key, w)
	rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	w.mu.Lock()
	defer w.mu.Unlock()

	valid := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	w.timestamps = valid

	if len(w.timestamps) >= rl.limit {
		return false
	}
	w.timestamps = append(w.timestamps, now)
	return true
}

// Middleware returns an HTTP middleware that rate-limits by client IP.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r, rl.TrustProxy)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client's IP address. Forwarding headers are read
// only when trustProxy is set; otherwise the peer address is used.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
