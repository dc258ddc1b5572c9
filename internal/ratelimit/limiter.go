// Package ratelimit implements per-client admission control with a fixed
// request window. Window records live in an expiring cache whose janitor
// prunes clients with no recent activity, so idle clients cost no memory
// beyond the last window record. State is private per process.
package ratelimit

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type Config struct {
	// Quota is the number of requests allowed per window.
	Quota int `json:"quota"`
	// Window is the fixed window length.
	Window time.Duration `json:"window"`
	// Enabled turns admission control off entirely when false.
	Enabled bool `json:"enabled"`
}

// bucket is one client's current window.
type bucket struct {
	windowStart time.Time
	count       int
}

// Limiter answers whether a client may issue another request right now.
type Limiter struct {
	config *Config

	mu      sync.Mutex
	windows *gocache.Cache
	now     func() time.Time
}

func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Quota:   100,
			Window:  time.Minute,
			Enabled: true,
		}
	}

	// Records expire two windows after their last write; the janitor sweep
	// runs once per window to keep memory bounded.
	return &Limiter{
		config:  config,
		windows: gocache.New(2*config.Window, config.Window),
		now:     time.Now,
	}
}

// Allow reports whether clientID may proceed. The check-and-increment is
// atomic across concurrent callers; exactly Quota calls within one window
// return true.
func (l *Limiter) Allow(clientID string) bool {
	allowed, _, _ := l.Admit(clientID)
	return allowed
}

// Admit performs the admission check and reports the remaining quota and
// window reset from the same locked section, so the reported count is always
// consistent with the decision under concurrency.
func (l *Limiter) Admit(clientID string) (allowed bool, remaining int, reset time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !l.config.Enabled {
		return true, l.config.Quota, now.Add(l.config.Window)
	}

	if v, found := l.windows.Get(clientID); found {
		b := v.(*bucket)
		if now.Sub(b.windowStart) < l.config.Window {
			reset = b.windowStart.Add(l.config.Window)
			if b.count >= l.config.Quota {
				return false, 0, reset
			}
			b.count++
			return true, l.config.Quota - b.count, reset
		}
	}

	l.windows.Set(clientID, &bucket{windowStart: now, count: 1}, gocache.DefaultExpiration)
	return true, l.config.Quota - 1, now.Add(l.config.Window)
}

// Remaining returns the requests left in the client's current window and
// when the window resets. A client with no live window has the full quota.
func (l *Limiter) Remaining(clientID string) (int, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if v, found := l.windows.Get(clientID); found {
		b := v.(*bucket)
		if now.Sub(b.windowStart) < l.config.Window {
			remaining := l.config.Quota - b.count
			if remaining < 0 {
				remaining = 0
			}
			return remaining, b.windowStart.Add(l.config.Window)
		}
	}
	return l.config.Quota, now.Add(l.config.Window)
}

// HTTPMiddleware gates requests on the limiter, emitting rate limit headers
// and a 429 when the quota is exhausted. Requests with an empty key are
// admitted unconditionally.
func (l *Limiter) HTTPMiddleware(keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, remaining, reset := l.Admit(key)

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", l.config.Quota))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", reset.Unix()))

			if !allowed {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(l.config.Window.Seconds())))
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IPBasedKey identifies clients by network address, preferring proxy headers.
func IPBasedKey(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.Header.Get("X-Real-IP")
	}
	if ip == "" {
		ip = r.RemoteAddr
	}
	return fmt.Sprintf("ip:%s", ip)
}

// EndpointBasedKey identifies clients by method and path.
func EndpointBasedKey(r *http.Request) string {
	return fmt.Sprintf("endpoint:%s:%s", r.Method, r.URL.Path)
}
