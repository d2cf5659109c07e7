package ratelimit

import (
	"sync"
	"time"
)

// RateLimiter enforces per-key sliding window limits (one minute and one hour).
// Keys are typically client IPs.
type RateLimiter struct {
	requestsPerMinute int
	requestsPerHour   int
	enabled           bool

	clients map[string]*window
	mu      sync.Mutex
	now     func() time.Time
}

type window struct {
	minute []time.Time
	hour   []time.Time
}

// NewRateLimiter creates a new rate limiter with the given limits. A zero
// hourly limit disables the hourly window.
func NewRateLimiter(requestsPerMinute, requestsPerHour int, enabled bool) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		enabled:           enabled,
		clients:           make(map[string]*window),
		now:               time.Now,
	}
}

// AllowRequest checks if a request from key is allowed and records it if so.
func (rl *RateLimiter) AllowRequest(key string) bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w := rl.clients[key]
	if w == nil {
		w = &window{}
		rl.clients[key] = w
	}
	w.cleanup(now)

	if rl.requestsPerMinute > 0 && len(w.minute) >= rl.requestsPerMinute {
		return false
	}
	if rl.requestsPerHour > 0 && len(w.hour) >= rl.requestsPerHour {
		return false
	}

	w.minute = append(w.minute, now)
	w.hour = append(w.hour, now)
	return true
}

// cleanup removes expired entries from the time windows
func (w *window) cleanup(now time.Time) {
	w.minute = filterTimes(w.minute, now.Add(-time.Minute))
	w.hour = filterTimes(w.hour, now.Add(-time.Hour))
}

// filterTimes keeps only times after the cutoff
func filterTimes(times []time.Time, cutoff time.Time) []time.Time {
	result := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			result = append(result, t)
		}
	}
	return result
}

// Prune drops keys with no requests in the last hour and returns how many were removed.
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, w := range rl.clients {
		w.cleanup(now)
		if len(w.hour) == 0 {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

// GetStats returns current rate limiter statistics for key
func (rl *RateLimiter) GetStats(key string) Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	var minute, hour int
	if w := rl.clients[key]; w != nil {
		w.cleanup(rl.now())
		minute, hour = len(w.minute), len(w.hour)
	}

	return Stats{
		Enabled:             true,
		RequestsLastMinute:  minute,
		RequestsLastHour:    hour,
		LimitPerMinute:      rl.requestsPerMinute,
		LimitPerHour:        rl.requestsPerHour,
		RemainingThisMinute: max(0, rl.requestsPerMinute-minute),
		RemainingThisHour:   max(0, rl.requestsPerHour-hour),
		TrackedClients:      len(rl.clients),
	}
}

// Stats contains rate limiter statistics
type Stats struct {
	Enabled             bool `json:"enabled"`
	RequestsLastMinute  int  `json:"requests_last_minute"`
	RequestsLastHour    int  `json:"requests_last_hour"`
	LimitPerMinute      int  `json:"limit_per_minute"`
	LimitPerHour        int  `json:"limit_per_hour"`
	RemainingThisMinute int  `json:"remaining_this_minute"`
	RemainingThisHour   int  `json:"remaining_this_hour"`
	TrackedClients      int  `json:"tracked_clients"`
}

// Reset clears all tracked requests (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.clients = make(map[string]*window)
}
