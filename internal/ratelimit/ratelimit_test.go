package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countAllowed(rl *KeyedRateLimiter, key string, attempts int) int {
	allowed := 0
	for range attempts {
		if rl.Allow(key) {
			allowed++
		}
	}
	return allowed
}

func TestAllow_BurstThenReject(t *testing.T) {
	tests := []struct {
		name     string
		burst    int
		attempts int
		want     int
	}{
		{"under burst", 5, 3, 3},
		{"exactly burst", 5, 5, 5},
		{"over burst", 2, 6, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A slow refill keeps the result independent of test timing.
			rl := New(0.01, tt.burst)
			defer rl.Stop()

			assert.Equal(t, tt.want, countAllowed(rl, "203.0.113.7", tt.attempts))
		})
	}
}

func TestAllow_ClientsHaveSeparateBuckets(t *testing.T) {
	rl := New(0.01, 1)
	defer rl.Stop()

	require.True(t, rl.Allow("203.0.113.7"))
	assert.False(t, rl.Allow("203.0.113.7"))

	for i := range 3 {
		ip := fmt.Sprintf("198.51.100.%d", i)
		assert.True(t, rl.Allow(ip), ip)
	}
	assert.Equal(t, 4, rl.Len())
}

func TestWait_PacesOutboundCalls(t *testing.T) {
	rl := New(20, 1)
	defer rl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, rl.Wait(ctx, "catalog"))
	require.NoError(t, rl.Wait(ctx, "catalog"))

	// The second call waits for one refill interval of 50ms.
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestWait_HonoursCancellation(t *testing.T) {
	rl := New(0.01, 1)
	defer rl.Stop()
	require.True(t, rl.Allow("catalog"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Error(t, rl.Wait(ctx, "catalog"))
}

func TestEvictIdle(t *testing.T) {
	rl := NewWithIdleTTL(0.01, 1, time.Hour)
	defer rl.Stop()

	clock := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	require.True(t, rl.Allow("203.0.113.7"))
	clock = clock.Add(40 * time.Minute)
	require.True(t, rl.Allow("198.51.100.1"))

	clock = clock.Add(30 * time.Minute)
	assert.Equal(t, 1, rl.evictIdle())
	assert.Equal(t, 1, rl.Len())

	// The evicted client gets a fresh bucket.
	assert.True(t, rl.Allow("203.0.113.7"))
	// The survivor keeps its spent bucket.
	assert.False(t, rl.Allow("198.51.100.1"))
}

func TestStop_IsIdempotent(t *testing.T) {
	rl := New(1, 1)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
