package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T, rate float64, burst int) (*Limiter, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Unix(1700000000, 0)}
	limiter := NewLimiter(rate, burst, newTestLogger())
	limiter.SetClock(clock.Now)
	t.Cleanup(limiter.Stop)
	return limiter, clock
}

func TestLimiter_Allow_WithinBurst(t *testing.T) {
	limiter, _ := newTestLimiter(t, 10, 5)

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow("client1"), "Request %d should be allowed", i+1)
	}
	assert.False(t, limiter.Allow("client1"), "6th request should be denied")
}

func TestLimiter_Allow_TokenRefill(t *testing.T) {
	limiter, clock := newTestLimiter(t, 10, 5)

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow("client1"))
	}
	assert.False(t, limiter.Allow("client1"))

	// 100ms is one token at 10/sec
	clock.Advance(100 * time.Millisecond)
	assert.True(t, limiter.Allow("client1"))
	assert.False(t, limiter.Allow("client1"))

	// Refill is capped at the burst size
	clock.Advance(time.Hour)
	assert.Equal(t, 5.0, limiter.Tokens("client1"))
}

func TestLimiter_Allow_DifferentClients(t *testing.T) {
	limiter, _ := newTestLimiter(t, 10, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("client1"))
	}
	assert.False(t, limiter.Allow("client1"))

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("client2"))
	}
	assert.False(t, limiter.Allow("client2"))
}

func TestLimiter_Block(t *testing.T) {
	limiter, clock := newTestLimiter(t, 10, 5)

	limiter.Block("client1", 100*time.Millisecond)
	assert.True(t, limiter.IsBlocked("client1"))
	assert.False(t, limiter.Allow("client1"))

	clock.Advance(150 * time.Millisecond)
	assert.False(t, limiter.IsBlocked("client1"))
	assert.True(t, limiter.Allow("client1"))
}

func TestLimiter_AllowN(t *testing.T) {
	limiter, _ := newTestLimiter(t, 10, 10)

	assert.True(t, limiter.AllowN("client1", 7))
	assert.False(t, limiter.AllowN("client1", 4))
	assert.True(t, limiter.AllowN("client1", 3))
	assert.False(t, limiter.Allow("client1"))
}

func TestLimiter_Tokens(t *testing.T) {
	limiter, _ := newTestLimiter(t, 10, 5)

	assert.Equal(t, 5.0, limiter.Tokens("unknown"))
	limiter.Allow("client1")
	assert.InDelta(t, 4.0, limiter.Tokens("client1"), 0.001)
}

func TestLimiter_Sweep(t *testing.T) {
	limiter, clock := newTestLimiter(t, 10, 5)

	limiter.Allow("idle")
	limiter.Block("blocked", time.Hour)
	assert.Equal(t, 2, limiter.ClientCount())

	clock.Advance(11 * time.Minute)
	limiter.Allow("active")

	assert.Equal(t, 1, limiter.Sweep())
	assert.Equal(t, 2, limiter.ClientCount())
	assert.True(t, limiter.IsBlocked("blocked"))
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter, _ := newTestLimiter(t, 0, 100)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if limiter.Allow("shared") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	// With no refill exactly the burst is admitted
	assert.Equal(t, 100, allowed)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.False(t, cfg.Enabled)
	assert.Equal(t, 20.0, cfg.RequestsPerSecond)
	assert.Equal(t, 40, cfg.BurstSize)
	assert.Equal(t, time.Minute, cfg.BlockDuration)
	assert.Contains(t, cfg.WhitelistedPaths, "/metrics")
}
