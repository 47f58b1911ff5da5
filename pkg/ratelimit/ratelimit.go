// Package ratelimit throttles session API traffic per client with token
// buckets.
package ratelimit

import (
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Limiter implements a token bucket rate limiter with per-key tracking
type Limiter struct {
	rate       float64 // tokens per second
	burst      int
	clients    map[string]*bucket
	mu         sync.Mutex
	logger     *logrus.Entry
	now        func() time.Time
	cleanupTTL time.Duration
	stopChan   chan struct{}
	stopOnce   sync.Once
}

type bucket struct {
	tokens     float64
	lastUpdate time.Time
	blockUntil time.Time
}

// Config holds rate limiter configuration
type Config struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// RequestsPerSecond is the sustained rate allowed per client
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	BurstSize int `json:"burst_size" yaml:"burst_size"`

	// BlockDuration is how long a client is refused after exceeding its bucket
	BlockDuration time.Duration `json:"block_duration" yaml:"block_duration"`

	// WhitelistedIPs bypass the limiter. CIDR ranges are accepted.
	WhitelistedIPs []string `json:"whitelisted_ips" yaml:"whitelisted_ips"`

	// WhitelistedPaths bypass the limiter. A trailing * matches a prefix.
	WhitelistedPaths []string `json:"whitelisted_paths" yaml:"whitelisted_paths"`
}

// DefaultConfig returns the limiter defaults. Probes and scrapes are never
// limited.
func DefaultConfig() *Config {
	return &Config{
		Enabled:           false,
		RequestsPerSecond: 20,
		BurstSize:         40,
		BlockDuration:     time.Minute,
		WhitelistedIPs:    []string{"127.0.0.1", "::1"},
		WhitelistedPaths:  []string{"/health*", "/metrics"},
	}
}

// NewLimiter creates a limiter and starts its stale-bucket cleanup. Call Stop
// to end the cleanup goroutine.
func NewLimiter(rate float64, burst int, logger *logrus.Logger) *Limiter {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	l := &Limiter{
		rate:       rate,
		burst:      burst,
		clients:    make(map[string]*bucket),
		logger:     logger.WithField("component", "ratelimit"),
		now:        time.Now,
		cleanupTTL: 10 * time.Minute,
		stopChan:   make(chan struct{}),
	}

	go l.cleanup()
	return l
}

// SetClock replaces the time source
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Allow spends one token for key
func (l *Limiter) Allow(key string) bool {
	return l.AllowN(key, 1)
}

// AllowN spends n tokens for key, or none if fewer are available
func (l *Limiter) AllowN(key string, n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b := l.refill(key, now)
	if now.Before(b.blockUntil) {
		return false
	}

	if b.tokens >= float64(n) {
		b.tokens -= float64(n)
		return true
	}
	return false
}

// refill returns key's bucket topped up for the time elapsed. New clients
// start with a full bucket.
func (l *Limiter) refill(key string, now time.Time) *bucket {
	b, exists := l.clients[key]
	if !exists {
		b = &bucket{tokens: float64(l.burst), lastUpdate: now}
		l.clients[key] = b
		return b
	}

	b.tokens = min(b.tokens+now.Sub(b.lastUpdate).Seconds()*l.rate, float64(l.burst))
	b.lastUpdate = now
	return b
}

// Block refuses key for duration and empties its bucket
func (l *Limiter) Block(key string, duration time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b := l.refill(key, now)
	b.blockUntil = now.Add(duration)
	b.tokens = 0

	l.logger.WithFields(logrus.Fields{
		"key":         key,
		"block_until": b.blockUntil,
	}).Warn("Client blocked due to rate limit violation")
}

// IsBlocked checks if a client is currently blocked
func (l *Limiter) IsBlocked(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.clients[key]
	return exists && l.now().Before(b.blockUntil)
}

// Tokens returns the tokens key could spend now
func (l *Limiter) Tokens(key string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.clients[key]
	if !exists {
		return float64(l.burst)
	}
	return min(b.tokens+l.now().Sub(b.lastUpdate).Seconds()*l.rate, float64(l.burst))
}

// ClientCount returns the number of tracked clients
func (l *Limiter) ClientCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Stop ends the cleanup goroutine
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopChan) })
}

// Sweep drops buckets idle longer than the cleanup TTL that are not blocked
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, b := range l.clients {
		if now.Sub(b.lastUpdate) > l.cleanupTTL && !now.Before(b.blockUntil) {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

func (l *Limiter) cleanup() {
	ticker := time.NewTicker(l.cleanupTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				l.logger.WithField("removed", n).Debug("Removed stale rate limit buckets")
			}
		case <-l.stopChan:
			return
		}
	}
}
