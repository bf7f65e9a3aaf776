// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// client is the token bucket of one client and when it was last used.
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// WriteLimiter throttles tree mutations per client IP. Each client may burst
// up to limit writes and then refills at limit per window. Safe methods
// (GET, HEAD, OPTIONS) are never counted.
type WriteLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	window  time.Duration
	stopCh  chan struct{}
}

// NewWriteLimiter allows limit writes per window for each client and
// starts a goroutine that drops idle clients until Stop is called. A limit
// of zero or less lets every write through.
func NewWriteLimiter(limit int, window time.Duration) *WriteLimiter {
	wl := &WriteLimiter{
		clients: make(map[string]*client),
		limit:   limit,
		window:  window,
		stopCh:  make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				wl.cleanup()
			case <-wl.stopCh:
				return
			}
		}
	}()

	return wl
}

// Stop terminates the background cleanup goroutine.
func (wl *WriteLimiter) Stop() {
	close(wl.stopCh)
}

// allow takes a token for key and reports whether one was available.
// When none was, it also returns how long until the next token.
func (wl *WriteLimiter) allow(key string) (bool, time.Duration) {
	if wl.limit <= 0 {
		return true, 0
	}
	now := time.Now()

	wl.mu.Lock()
	c, ok := wl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Every(wl.window/time.Duration(wl.limit)), wl.limit)}
		wl.clients[key] = c
	}
	c.lastSeen = now
	wl.mu.Unlock()

	r := c.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, wl.window
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// cleanup removes clients idle for a full window. Their buckets have
// refilled, so a fresh limiter is equivalent.
func (wl *WriteLimiter) cleanup() {
	cutoff := time.Now().Add(-wl.window)

	wl.mu.Lock()
	defer wl.mu.Unlock()

	for key, c := range wl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(wl.clients, key)
		}
	}
}

// Middleware rejects writes over the limit with 429 and a Retry-After
// header in whole seconds.
func (wl *WriteLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		ok, wait := wl.allow(clientIP(r))
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"too many changes, slow down"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// clientIP extracts the client's IP address, checking X-Forwarded-For
// and X-Real-IP headers for proxied requests.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// The leftmost address is the original client.
		if idx := strings.IndexByte(xff, ','); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
