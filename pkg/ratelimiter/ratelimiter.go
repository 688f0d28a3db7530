package ratelimiter

import (
	"strings"
	"sync"
	"time"
)

// Policy caps the number of attempts a key may make within a sliding window
type Policy struct {
	MaxAttempts int
	Window      time.Duration
}

// RateLimiter is an in-memory sliding window limiter. Keys are grouped in
// namespaces, each with its own policy; a namespace without a policy denies
// every request.
//
//	rl := ratelimiter.NewRateLimiter()
//	rl.SetPolicy("segmentation.evaluate", 5, time.Minute)
//
//	if !rl.Allow("segmentation.evaluate", organizationID) {
//	    w.Header().Set("Retry-After", ...)
//	}
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time // "namespace:key" -> attempt times, oldest first
	policies map[string]Policy
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a limiter and starts its background sweeper
func NewRateLimiter() *RateLimiter {
	rl := newRateLimiter(time.Now)
	go rl.sweep(time.Minute)
	return rl
}

func newRateLimiter(now func() time.Time) *RateLimiter {
	return &RateLimiter{
		attempts: make(map[string][]time.Time),
		policies: make(map[string]Policy),
		now:      now,
		stop:     make(chan struct{}),
	}
}

// SetPolicy configures a namespace. A non positive maxAttempts blocks the namespace.
func (rl *RateLimiter) SetPolicy(namespace string, maxAttempts int, window time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.policies[namespace] = Policy{MaxAttempts: maxAttempts, Window: window}
}

// Allow records an attempt and reports whether it fits the namespace policy.
// Rejected attempts are not recorded.
func (rl *RateLimiter) Allow(namespace, key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	policy, ok := rl.policies[namespace]
	if !ok {
		return false
	}

	now := rl.now()
	id := namespace + ":" + key
	recent := prune(rl.attempts[id], now.Add(-policy.Window))

	if len(recent) >= policy.MaxAttempts {
		rl.attempts[id] = recent
		return false
	}

	rl.attempts[id] = append(recent, now)
	return true
}

// RetryAfter returns how long until the oldest attempt in the window expires,
// or zero when the key has no attempts left to age out.
func (rl *RateLimiter) RetryAfter(namespace, key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	policy, ok := rl.policies[namespace]
	if !ok {
		return 0
	}

	now := rl.now()
	recent := prune(rl.attempts[namespace+":"+key], now.Add(-policy.Window))
	if len(recent) == 0 {
		return 0
	}

	remaining := recent[0].Add(policy.Window).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset forgets every attempt of a key
func (rl *RateLimiter) Reset(namespace, key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, namespace+":"+key)
}

// Stop ends the background sweeper. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictExpired()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) evictExpired() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for id, times := range rl.attempts {
		namespace, _, _ := strings.Cut(id, ":")
		policy, ok := rl.policies[namespace]
		if !ok {
			delete(rl.attempts, id)
			continue
		}
		if len(prune(times, now.Add(-policy.Window))) == 0 {
			delete(rl.attempts, id)
		}
	}
}

// prune drops the attempts at or before cutoff; times are kept in ascending order
func prune(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}
