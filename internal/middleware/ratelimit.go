package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig sets a token bucket per client key.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstSize         int

	// CleanupInterval is both the sweep period and how long a client must
	// be idle before its bucket is forgotten.
	CleanupInterval time.Duration

	// KeyFunc picks the bucket for a request. Defaults to GetClientIP.
	KeyFunc func(r *http.Request) string
}

// DefaultRateLimiterConfig returns the limits applied to the quote API.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		CleanupInterval:   time.Minute,
		KeyFunc:           GetClientIP,
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client. A background loop forgets
// idle clients until Stop is called.
type RateLimiter struct {
	config RateLimiterConfig
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*client

	stop chan struct{}
	once sync.Once
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = GetClientIP
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}

	rl := &RateLimiter{
		config:  config,
		now:     time.Now,
		buckets: make(map[string]*client),
		stop:    make(chan struct{}),
	}
	go rl.sweepEvery(config.CleanupInterval)
	return rl
}

// Allow spends one token from key's bucket, creating a full bucket for a
// key it has not seen.
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	c, ok := rl.buckets[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize)}
		rl.buckets[key] = c
	}
	c.lastSeen = now
	rl.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stop:
			return
		}
	}
}

// sweep forgets clients idle for longer than CleanupInterval whose bucket
// has refilled, since a fresh bucket would behave the same.
func (rl *RateLimiter) sweep() {
	now := rl.now()
	burst := float64(rl.config.BurstSize)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, c := range rl.buckets {
		if now.Sub(c.lastSeen) > rl.config.CleanupInterval && c.limiter.TokensAt(now) >= burst {
			delete(rl.buckets, key)
		}
	}
}

// Stop ends the sweep loop. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Middleware answers 429 with Retry-After once a client runs dry.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rl.config.KeyFunc(r)) {
			w.Header().Set("Retry-After", "1")
			reject(w, r, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}
